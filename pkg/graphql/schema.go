// Package graphql exposes a read-only schema over the admin back office.
package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/response"
)

// NewSchema creates a GraphQL schema from a provided root query object.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Handler serves GraphQL queries for the given schema. Queries arrive either
// as ?query= on GET or as a {"query": ..., "variables": ...} JSON body on POST.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var query string
		variables := map[string]interface{}{}

		switch r.Method {
		case http.MethodGet:
			query = r.URL.Query().Get("query")
		case http.MethodPost:
			var body struct {
				Query     string                 `json:"query"`
				Variables map[string]interface{} `json:"variables"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				response.Error(w, http.StatusBadRequest, apperr.CodeValidation, "invalid GraphQL request body")
				return
			}
			query = body.Query
			if body.Variables != nil {
				variables = body.Variables
			}
		}

		if query == "" {
			response.Error(w, http.StatusBadRequest, apperr.CodeValidation, "missing query")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  query,
			VariableValues: variables,
			Context:        r.Context(),
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result) //nolint:errcheck
	}
}
