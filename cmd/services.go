package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func servicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Browse the guest-services catalog",
	}

	cmd.AddCommand(servicesVendorsCmd())
	cmd.AddCommand(servicesCategoriesCmd())
	cmd.AddCommand(servicesProductsCmd())
	return cmd
}

func servicesVendorsCmd() *cobra.Command {
	var country string
	var location string

	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "List guest-service vendors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if country == "" {
				country = cfg.Defaults.CountryCode
			}
			if location == "" {
				location = cfg.Defaults.LocationCode
			}

			ctx := context.Background()
			vendors, err := client.ListVendors(ctx, strings.ToUpper(country), strings.ToUpper(location))
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(vendors)
			}
			if len(vendors) == 0 {
				fmt.Println("No vendors found.")
				return nil
			}

			writer := newTable(os.Stdout)
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tNAME\tLOCATION\tCURRENCY")
			}
			for _, vendor := range vendors {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", vendor.VendorID, vendor.Name, vendor.LocationCode, vendor.Currency)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "Country code (default: $ROOMBOSS_COUNTRY)")
	cmd.Flags().StringVar(&location, "location", "", "Location code (default: $ROOMBOSS_LOCATION)")
	return cmd
}

func servicesCategoriesCmd() *cobra.Command {
	var vendorID string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			categories, err := client.ListCategories(ctx, vendorID)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(categories)
			}
			if len(categories) == 0 {
				fmt.Println("No categories found.")
				return nil
			}

			writer := newTable(os.Stdout)
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tNAME")
			}
			for _, category := range categories {
				fmt.Fprintf(writer, "%s\t%s\n", category.CategoryID, category.Name)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&vendorID, "vendor", "", "Vendor id")
	return cmd
}

func servicesProductsCmd() *cobra.Command {
	var vendorID string
	var categoryID string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			if vendorID == "" && categoryID == "" {
				return fmt.Errorf("--vendor or --category is required")
			}

			ctx := context.Background()
			products, err := client.ListProducts(ctx, vendorID, categoryID)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(products)
			}
			if len(products) == 0 {
				fmt.Println("No products found.")
				return nil
			}

			writer := newTable(os.Stdout)
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tNAME\tVENDOR\tCATEGORY\tPRICE")
			}
			for _, product := range products {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
					product.ProductID,
					product.Name,
					product.VendorID,
					product.CategoryID,
					formatPrice(product.Currency, product.Price),
				)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&vendorID, "vendor", "", "Vendor id")
	cmd.Flags().StringVar(&categoryID, "category", "", "Category id")
	return cmd
}
