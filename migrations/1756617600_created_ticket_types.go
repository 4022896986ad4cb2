package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("ticket_types")

		collection.Fields.Add(
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "type", Required: true},
			&core.TextField{Name: "description"},
			&core.TextField{Name: "price_amount", Required: true},
			&core.TextField{Name: "price_currency", Required: true},
			&core.NumberField{Name: "available_quantity", OnlyInt: true},
			&core.NumberField{Name: "sold_quantity", OnlyInt: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// one ticket class per event
		collection.AddIndex("idx_ticket_types_event_type", true, "event_id, type", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("ticket_types")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
