package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "user_id", Required: true},
			&core.TextField{Name: "attendee_name", Required: true},
			&core.TextField{Name: "ticket_type_id", Required: true},
			&core.TextField{Name: "price_amount", Required: true},
			&core.TextField{Name: "price_currency", Required: true},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values: []string{
					"pending_payment",
					"active",
					"used",
					"payment_failed",
					"cancelled",
				},
			},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_tickets_ticket_type", false, "ticket_type_id", "")
		collection.AddIndex("idx_tickets_user", false, "user_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
