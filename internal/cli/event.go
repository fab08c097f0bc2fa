package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/model"
)

type eventFlags struct {
	typ, date, title  string
	amount            string
	description       string
	color             string
	contract, settled string
	status            string
	ppr               bool
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.typ, "type", "", "event type (purchase|sale|move_in|move_out|rent_start|rent_end|improvement|refinance|status_change|living_in_rental_start|living_in_rental_end|custom)")
	cmd.Flags().StringVar(&f.date, "date", "", "event date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.title, "title", "", "title (default derived from type)")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount")
	cmd.Flags().StringVar(&f.description, "description", "", "free-form description")
	cmd.Flags().StringVar(&f.color, "color", "", "display color (#rrggbb)")
	cmd.Flags().StringVar(&f.contract, "contract-date", "", "contract date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.settled, "settlement-date", "", "settlement date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.status, "new-status", "", "status the property moves to")
	cmd.Flags().BoolVar(&f.ppr, "ppr", false, "mark as principal place of residence")
}

func (f *eventFlags) update(cmd *cobra.Command) (model.EventUpdate, error) {
	var (
		u   model.EventUpdate
		err error
	)
	set := cmd.Flags().Changed
	if u.Type, err = optional(set("type"), "type", f.typ, parseEventType); err != nil {
		return u, err
	}
	if u.Date, err = optional(set("date"), "date", f.date, parseDate); err != nil {
		return u, err
	}
	if u.Title, err = optional(set("title"), "title", f.title, text); err != nil {
		return u, err
	}
	if u.Amount, err = optional(set("amount"), "amount", f.amount, parseMoney); err != nil {
		return u, err
	}
	if u.Description, err = optional(set("description"), "description", f.description, text); err != nil {
		return u, err
	}
	if u.Color, err = optional(set("color"), "color", f.color, text); err != nil {
		return u, err
	}
	if u.ContractDate, err = optional(set("contract-date"), "contract-date", f.contract, parseDate); err != nil {
		return u, err
	}
	if u.SettlementDate, err = optional(set("settlement-date"), "settlement-date", f.settled, parseDate); err != nil {
		return u, err
	}
	if u.NewStatus, err = optional(set("new-status"), "new-status", f.status, parseStatus); err != nil {
		return u, err
	}
	if set("ppr") {
		v := f.ppr
		u.IsPPR = &v
	}
	return u, nil
}

func newEventCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Add, update, move and delete timeline events",
	}
	cmd.AddCommand(newEventAddCommand(opts))
	cmd.AddCommand(newEventUpdateCommand(opts))
	cmd.AddCommand(newEventMoveCommand(opts))
	cmd.AddCommand(newEventDeleteCommand(opts))
	return cmd
}

func newEventAddCommand(opts *RootOptions) *cobra.Command {
	f := &eventFlags{}
	cmd := &cobra.Command{
		Use:     "add <property-id>",
		Short:   "Add an event to a property",
		Example: `  timeline event add 0192f3c1-... --type purchase --date 2018-06-01 --amount 650000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := f.update(cmd)
			if err != nil {
				return err
			}
			ev := model.TimelineEvent{
				PropertyID:     args[0],
				Type:           deref(u.Type),
				Date:           deref(u.Date),
				Title:          deref(u.Title),
				Amount:         u.Amount,
				Description:    deref(u.Description),
				Color:          deref(u.Color),
				ContractDate:   u.ContractDate,
				SettlementDate: u.SettlementDate,
				NewStatus:      u.NewStatus,
				IsPPR:          u.IsPPR,
			}
			return mutate(cmd, opts, func(*App) (action.Payload, error) {
				return action.AddEventPayload{Event: ev}, nil
			})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newEventUpdateCommand(opts *RootOptions) *cobra.Command {
	f := &eventFlags{}
	var propertyID string
	cmd := &cobra.Command{
		Use:   "update <event-id>",
		Short: "Update fields of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := f.update(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("property") {
				u.PropertyID = &propertyID
			}
			if u == (model.EventUpdate{}) {
				return NewExitError(ExitCommandError, "nothing to update: set at least one flag")
			}
			return mutate(cmd, opts, func(*App) (action.Payload, error) {
				return action.UpdateEventPayload{EventID: args[0], Updates: u}, nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&propertyID, "property", "", "move the event to another property")
	return cmd
}

func newEventMoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <event-id> <date>",
		Short: "Move an event to a new date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate("date", args[1])
			if err != nil {
				return err
			}
			return mutate(cmd, opts, func(*App) (action.Payload, error) {
				return action.MoveEventPayload{EventID: args[0], Date: date}, nil
			})
		},
	}
}

func newEventDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <event-id>...",
		Short: "Delete one or more events as a single undoable step",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, opts, func(app *App) (action.Payload, error) {
				for _, id := range args {
					if _, ok := app.Store.Event(id); !ok {
						return nil, errNotFound("event", id)
					}
				}
				if len(args) > 1 {
					return action.BulkDeleteEventsPayload{EventIDs: args}, nil
				}
				ev, _ := app.Store.Event(args[0])
				return action.DeleteEventPayload{Event: ev}, nil
			})
		},
	}
}

func newCostCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Manage cost base items on an event",
	}
	cmd.AddCommand(newCostAddCommand(opts))
	cmd.AddCommand(newCostDeleteCommand(opts))
	return cmd
}

func newCostAddCommand(opts *RootOptions) *cobra.Command {
	var item model.CostBaseItem
	var amount string
	cmd := &cobra.Command{
		Use:     "add <event-id>",
		Short:   "Add a cost base item",
		Example: `  timeline cost add <event-id> --name "Stamp duty" --amount 24000 --category acquisition`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseMoney("amount", amount)
			if err != nil {
				return err
			}
			item.Amount = amt
			return mutate(cmd, opts, func(app *App) (action.Payload, error) {
				if _, ok := app.Store.Event(args[0]); !ok {
					return nil, errNotFound("event", args[0])
				}
				return action.AddCostBasePayload{EventID: args[0], CostBase: item}, nil
			})
		},
	}
	cmd.Flags().StringVar(&item.Name, "name", "", "item name")
	cmd.Flags().StringVar(&amount, "amount", "", "amount")
	cmd.Flags().StringVar(&item.Category, "category", "", "category")
	cmd.Flags().StringVar(&item.Description, "description", "", "description")
	cmd.Flags().StringVar(&item.DefinitionID, "definition", "", "predefined item id")
	cmd.Flags().BoolVar(&item.IsCustom, "custom", false, "mark as a custom item")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newCostDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <event-id> <cost-base-id>",
		Short: "Delete a cost base item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, opts, func(*App) (action.Payload, error) {
				return action.DeleteCostBasePayload{EventID: args[0], CostBaseID: args[1]}, nil
			})
		},
	}
}

// describeEvent is the one-line text form used by list.
func describeEvent(ev model.TimelineEvent) string {
	s := fmt.Sprintf("%s  %-22s %s", ev.Date.Format("2006-01-02"), ev.Type, ev.Title)
	if ev.Amount != nil {
		s += "  " + ev.Amount.StringFixed(2)
	}
	return s + "  [" + ev.ID + "]"
}
