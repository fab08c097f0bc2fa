package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/model"
)

type propertyFlags struct {
	name, address, color string
	purchaseDate         string
	purchasePrice        string
	saleDate, salePrice  string
	currentValue         string
	status               string
	rental               bool
}

func (f *propertyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.address, "address", "", "street address")
	cmd.Flags().StringVar(&f.color, "color", "", "display color (#rrggbb)")
	cmd.Flags().StringVar(&f.purchaseDate, "purchase-date", "", "purchase date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.purchasePrice, "purchase-price", "", "purchase price")
	cmd.Flags().StringVar(&f.saleDate, "sale-date", "", "sale date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.salePrice, "sale-price", "", "sale price")
	cmd.Flags().StringVar(&f.currentValue, "current-value", "", "current market value")
	cmd.Flags().StringVar(&f.status, "status", "", "current status (ppr|rental|vacant|construction|sold|living_in_rental)")
	cmd.Flags().BoolVar(&f.rental, "rental", false, "rented home the owner lives in but does not own")
}

// update collects the flags that were set on cmd.
func (f *propertyFlags) update(cmd *cobra.Command) (model.PropertyUpdate, error) {
	var (
		u   model.PropertyUpdate
		err error
	)
	set := cmd.Flags().Changed
	if u.Name, err = optional(set("name"), "name", f.name, text); err != nil {
		return u, err
	}
	if u.Address, err = optional(set("address"), "address", f.address, text); err != nil {
		return u, err
	}
	if u.Color, err = optional(set("color"), "color", f.color, text); err != nil {
		return u, err
	}
	if u.PurchaseDate, err = optional(set("purchase-date"), "purchase-date", f.purchaseDate, parseDate); err != nil {
		return u, err
	}
	if u.PurchasePrice, err = optional(set("purchase-price"), "purchase-price", f.purchasePrice, parseMoney); err != nil {
		return u, err
	}
	if u.SaleDate, err = optional(set("sale-date"), "sale-date", f.saleDate, parseDate); err != nil {
		return u, err
	}
	if u.SalePrice, err = optional(set("sale-price"), "sale-price", f.salePrice, parseMoney); err != nil {
		return u, err
	}
	if u.CurrentValue, err = optional(set("current-value"), "current-value", f.currentValue, parseMoney); err != nil {
		return u, err
	}
	if u.CurrentStatus, err = optional(set("status"), "status", f.status, parseStatus); err != nil {
		return u, err
	}
	if set("rental") {
		u.IsRental = &f.rental
	}
	return u, nil
}

func newPropertyCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Add, update and delete properties",
	}
	cmd.AddCommand(newPropertyAddCommand(opts))
	cmd.AddCommand(newPropertyUpdateCommand(opts))
	cmd.AddCommand(newPropertyDeleteCommand(opts))
	return cmd
}

func newPropertyAddCommand(opts *RootOptions) *cobra.Command {
	f := &propertyFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a property",
		Example: `  timeline property add --address "1 Main St" --purchase-date 2018-06-01 --purchase-price 650000
  timeline property add --address "9 Side Rd" --name "Beach house" --status rental`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := f.update(cmd)
			if err != nil {
				return err
			}
			p := model.Property{
				PurchaseDate:  u.PurchaseDate,
				PurchasePrice: u.PurchasePrice,
				SaleDate:      u.SaleDate,
				SalePrice:     u.SalePrice,
				CurrentValue:  u.CurrentValue,
			}
			p.Name = deref(u.Name)
			p.Address = deref(u.Address)
			p.Color = deref(u.Color)
			p.CurrentStatus = deref(u.CurrentStatus)
			p.IsRental = deref(u.IsRental)
			return mutate(cmd, opts, func(*App) (action.Payload, error) {
				return action.AddPropertyPayload{Property: p}, nil
			})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func newPropertyUpdateCommand(opts *RootOptions) *cobra.Command {
	f := &propertyFlags{}
	cmd := &cobra.Command{
		Use:   "update <property-id>",
		Short: "Update fields of a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := f.update(cmd)
			if err != nil {
				return err
			}
			if u.IsEmpty() {
				return NewExitError(ExitCommandError, "nothing to update: set at least one flag")
			}
			return mutate(cmd, opts, func(*App) (action.Payload, error) {
				return action.UpdatePropertyPayload{PropertyID: args[0], Updates: u}, nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newPropertyDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <property-id>",
		Short: "Delete a property and all of its events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, opts, func(app *App) (action.Payload, error) {
				p, ok := app.Store.Property(args[0])
				if !ok {
					return nil, errNotFound("property", args[0])
				}
				return action.DeletePropertyPayload{Property: p, Events: app.Store.EventsForProperty(p.ID)}, nil
			})
		},
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
