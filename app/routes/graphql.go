package routes

import (
	"github.com/graphql-go/graphql"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/services"
	gql "github.com/cremaze/cremaze/pkg/graphql"
	"github.com/cremaze/cremaze/pkg/logger"
	"github.com/cremaze/cremaze/pkg/router"
)

// registerAdminGraphQL mounts a read-only GraphQL view of the back office at
// /api/admin/graphql. It resolves through the same services as the REST
// endpoints, so auth and admin gating come from the group middleware.
func registerAdminGraphQL(admin *router.Group) {
	productService := services.NewProductService()
	orderService := services.NewOrderService()
	contactService := services.NewContactService()

	productType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.Product).ID.Hex(), nil
				},
			},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"price":       &graphql.Field{Type: graphql.Int},
			"image":       &graphql.Field{Type: graphql.String},
		},
	})

	purchaserType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Purchaser",
		Fields: graphql.Fields{
			"name":  &graphql.Field{Type: graphql.String},
			"email": &graphql.Field{Type: graphql.String},
		},
	})

	orderType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Order",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.Order).ID.Hex(), nil
				},
			},
			"status":     &graphql.Field{Type: graphql.String},
			"isPaid":     &graphql.Field{Type: graphql.Boolean},
			"totalPrice": &graphql.Field{Type: graphql.Int},
			"purchaser":  &graphql.Field{Type: purchaserType},
		},
	})

	contactType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ContactMessage",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.ContactMessage).ID.Hex(), nil
				},
			},
			"name":       &graphql.Field{Type: graphql.String},
			"email":      &graphql.Field{Type: graphql.String},
			"message":    &graphql.Field{Type: graphql.String},
			"isRead":     &graphql.Field{Type: graphql.Boolean},
			"isArchived": &graphql.Field{Type: graphql.Boolean},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return productService.List(p.Context)
				},
			},
			"orders": &graphql.Field{
				Type: graphql.NewList(orderType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return orderService.ListAll(p.Context)
				},
			},
			"contactMessages": &graphql.Field{
				Type: graphql.NewList(contactType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return contactService.List(p.Context, "")
				},
			},
			"unreadContactCount": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return contactService.UnreadCount(p.Context)
				},
			},
		},
	})

	schema, err := gql.NewSchema(query)
	if err != nil {
		logger.Error("graphql: schema build failed", "error", err)
		return
	}

	handler := gql.Handler(schema)
	admin.Get("/admin/graphql", "admin.graphql", handler)
	admin.Post("/admin/graphql", "", handler)
}
