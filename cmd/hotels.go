package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

type HotelSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Currency  string `json:"currency"`
	RoomTypes int    `json:"room_types"`
}

func hotelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hotels",
		Short: "Browse RoomBoss hotels",
	}

	cmd.AddCommand(hotelsListCmd())
	cmd.AddCommand(hotelsImagesCmd())
	cmd.AddCommand(hotelsDescriptionsCmd())
	cmd.AddCommand(hotelsRatePlansCmd())
	return cmd
}

func hotelsListCmd() *cobra.Command {
	var country string
	var location string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List hotels in a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if country == "" {
				country = cfg.Defaults.CountryCode
			}
			if location == "" {
				location = cfg.Defaults.LocationCode
			}
			if location == "" {
				return fmt.Errorf("--location is required (or set ROOMBOSS_LOCATION)")
			}

			ctx := context.Background()
			hotels, err := client.ListHotels(ctx, strings.ToUpper(country), strings.ToUpper(location))
			if err != nil {
				return err
			}

			sort.Slice(hotels, func(i, j int) bool {
				return hotels[i].HotelName < hotels[j].HotelName
			})

			summaries := make([]HotelSummary, 0, len(hotels))
			for _, hotel := range hotels {
				summaries = append(summaries, HotelSummary{
					ID:        hotel.HotelID,
					Name:      hotel.HotelName,
					Location:  hotel.LocationCode,
					Currency:  hotel.Currency,
					RoomTypes: len(hotel.RoomTypes),
				})
			}

			if outputJSON {
				return writeJSON(summaries)
			}

			if len(summaries) == 0 {
				fmt.Println("No hotels found.")
				return nil
			}

			writer := newTable(os.Stdout)
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tNAME\tLOCATION\tCURRENCY\tROOM TYPES")
			}
			for _, hotel := range summaries {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\n", hotel.ID, hotel.Name, hotel.Location, hotel.Currency, hotel.RoomTypes)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "Country code (default: $ROOMBOSS_COUNTRY)")
	cmd.Flags().StringVar(&location, "location", "", "Location code, e.g. HAKUBA")
	return cmd
}

func hotelsImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images <hotel>",
		Short: "List images of a hotel and its room types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := resolveHotelIDs(args)
			if err != nil {
				return err
			}

			ctx := context.Background()
			images, err := client.ListImages(ctx, ids[0])
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(images)
			}

			writer := newTable(os.Stdout)
			if !outputCompact {
				fmt.Fprintln(writer, "SUBJECT\tSIZE\tURL")
			}
			for _, size := range sortedKeys(images.HotelImages) {
				fmt.Fprintf(writer, "hotel\t%s\t%s\n", size, images.HotelImages[size])
			}
			for _, roomTypeID := range sortedKeys(images.RoomTypeImages) {
				sizes := images.RoomTypeImages[roomTypeID]
				for _, size := range sortedKeys(sizes) {
					fmt.Fprintf(writer, "%s\t%s\t%s\n", roomTypeID, size, sizes[size])
				}
			}
			return writer.Flush()
		},
	}

	return cmd
}

func hotelsDescriptionsCmd() *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "descriptions <hotel>",
		Short: "Show the hotel and room type descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if locale == "" {
				locale = cfg.Defaults.Locale
			}
			ids, err := resolveHotelIDs(args)
			if err != nil {
				return err
			}

			ctx := context.Background()
			desc, err := client.ListDescriptions(ctx, ids[0], locale)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(desc)
			}

			fmt.Println(strings.TrimSpace(desc.HotelDescription))
			if outputCompact {
				return nil
			}
			for _, roomTypeID := range sortedKeys(desc.RoomTypeDescriptions) {
				fmt.Printf("\n[%s]\n%s\n", roomTypeID, strings.TrimSpace(desc.RoomTypeDescriptions[roomTypeID]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&locale, "locale", "", "Description locale (default: $ROOMBOSS_LOCALE)")
	return cmd
}

func hotelsRatePlansCmd() *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "rateplans <hotel>",
		Short: "List the rate plans of a hotel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if locale == "" {
				locale = cfg.Defaults.Locale
			}
			ids, err := resolveHotelIDs(args)
			if err != nil {
				return err
			}

			ctx := context.Background()
			plans, err := client.ListRatePlanDescriptions(ctx, ids[0], locale)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(plans)
			}

			if len(plans) == 0 {
				fmt.Println("No rate plans found.")
				return nil
			}

			writer := newTable(os.Stdout)
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tNAME\tDESCRIPTION")
			}
			for _, plan := range plans {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", plan.RatePlanID, plan.Name, oneLine(plan.Description, 60))
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&locale, "locale", "", "Description locale (default: $ROOMBOSS_LOCALE)")
	return cmd
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func oneLine(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
