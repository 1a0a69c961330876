package api

import "context"

type vendorParams struct {
	CountryCode  string `url:"countryCode,omitempty"`
	LocationCode string `url:"locationCode,omitempty"`
}

type categoryParams struct {
	VendorID string `url:"vendorId,omitempty"`
}

type productParams struct {
	VendorID   string `url:"vendorId,omitempty"`
	CategoryID string `url:"categoryId,omitempty"`
}

func (c *Client) ListVendors(ctx context.Context, countryCode, locationCode string) ([]Vendor, error) {
	var resp struct {
		Vendors []Vendor `json:"vendors"`
	}
	params := vendorParams{CountryCode: countryCode, LocationCode: locationCode}
	if err := c.get(ctx, "listVendors", gsPrefix+"/vendors/list", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Vendors, nil
}

func (c *Client) ListCategories(ctx context.Context, vendorID string) ([]Category, error) {
	var resp struct {
		Categories []Category `json:"categories"`
	}
	if err := c.get(ctx, "listCategories", gsPrefix+"/categories/list", categoryParams{VendorID: vendorID}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (c *Client) ListProducts(ctx context.Context, vendorID, categoryID string) ([]Product, error) {
	var resp struct {
		Products []Product `json:"products"`
	}
	params := productParams{VendorID: vendorID, CategoryID: categoryID}
	if err := c.get(ctx, "listProducts", gsPrefix+"/products/list", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}
