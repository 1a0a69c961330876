package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"roomboss-cli/storage"

	"github.com/spf13/cobra"
)

func favouritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favourites",
		Aliases: []string{"favorites", "fav"},
		Short:   "Manage saved hotels",
	}

	cmd.AddCommand(favouritesListCmd())
	cmd.AddCommand(favouritesAddCmd())
	cmd.AddCommand(favouritesRemoveCmd())
	return cmd
}

func favouritesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved hotels",
		RunE: func(cmd *cobra.Command, args []string) error {
			hotels, err := storage.LoadHotels()
			if err != nil {
				return err
			}

			sort.Slice(hotels, func(i, j int) bool {
				return strings.ToLower(hotels[i].Alias) < strings.ToLower(hotels[j].Alias)
			})

			if outputJSON {
				return writeJSON(hotels)
			}

			if len(hotels) == 0 {
				fmt.Println("No hotels saved.")
				return nil
			}

			writer := newTable(os.Stdout)
			if !outputCompact {
				fmt.Fprintln(writer, "ALIAS\tNAME\tHOTEL ID\tLOCATION")
			}
			for _, hotel := range hotels {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s/%s\n", hotel.Alias, hotel.Name, hotel.ID, hotel.CountryCode, hotel.LocationCode)
			}
			return writer.Flush()
		},
	}

	return cmd
}

func favouritesAddCmd() *cobra.Command {
	var id string
	var alias string
	var name string
	var location string
	var country string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a hotel under a short alias",
		Long: "Save a hotel under a short alias. When --name or --location is omitted the\n" +
			"hotel is looked up in RoomBoss.",
		RunE: func(cmd *cobra.Command, args []string) error {
			alias = strings.TrimSpace(alias)
			if id == "" || alias == "" {
				return fmt.Errorf("--id and --alias are required")
			}
			if country == "" {
				country = cfg.Defaults.CountryCode
			}

			hotels, err := storage.LoadHotels()
			if err != nil {
				return err
			}
			if _, ok := storage.FindHotelByAlias(hotels, alias); ok {
				return fmt.Errorf("hotel alias %q already exists", alias)
			}

			saved := storage.SavedHotel{
				ID:           id,
				Alias:        alias,
				Name:         name,
				CountryCode:  country,
				LocationCode: location,
			}
			if (saved.Name == "" || saved.LocationCode == "") && location != "" {
				ctx := context.Background()
				listed, err := client.ListHotels(ctx, strings.ToUpper(country), strings.ToUpper(location))
				if err != nil {
					return err
				}
				for _, hotel := range listed {
					if hotel.HotelID != id {
						continue
					}
					saved.Name = firstNonEmpty(saved.Name, hotel.HotelName)
					saved.Currency = hotel.Currency
				}
			}
			if saved.Name == "" {
				return fmt.Errorf("--name is required (or pass --location to look the hotel up)")
			}

			hotels = append(hotels, saved)
			if err := storage.SaveHotels(hotels); err != nil {
				return err
			}

			fmt.Printf("Saved hotel %s (%s).\n", alias, saved.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "RoomBoss hotel id")
	cmd.Flags().StringVar(&alias, "alias", "", "Short alias")
	cmd.Flags().StringVar(&name, "name", "", "Hotel name")
	cmd.Flags().StringVar(&location, "location", "", "Location code")
	cmd.Flags().StringVar(&country, "country", "", "Country code (default: $ROOMBOSS_COUNTRY)")
	return cmd
}

func favouritesRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <alias>",
		Short: "Remove a saved hotel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias := strings.TrimSpace(args[0])
			hotels, err := storage.LoadHotels()
			if err != nil {
				return err
			}

			index := -1
			for i, hotel := range hotels {
				if strings.EqualFold(hotel.Alias, alias) {
					index = i
					break
				}
			}

			if index == -1 {
				return fmt.Errorf("hotel alias %q not found", alias)
			}

			hotels = append(hotels[:index], hotels[index+1:]...)
			if err := storage.SaveHotels(hotels); err != nil {
				return err
			}

			fmt.Printf("Removed hotel %s.\n", alias)
			return nil
		},
	}

	return cmd
}
