package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"tours-api/store"
	"tours-api/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repo is the collection-access abstraction the CRUD factory is built over.
// store.Collection satisfies it for every resource type.
type Repo[T any] interface {
	InsertOne(ctx context.Context, doc *T) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*T, error)
	FindByIDUnscoped(ctx context.Context, id primitive.ObjectID) (*T, error)
	FindAll(ctx context.Context, features *store.Features, base bson.M) ([]T, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, updates bson.M) (*T, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (*T, error)
}

func idParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, utils.BadRequest("Invalid ID")
	}
	return id, nil
}

// CreateOne inserts a schema-validated document and returns it with 201.
// prepare fills defaults and route-injected references before validation;
// after runs post-write bookkeeping (e.g. rating recomputation).
func CreateOne[T any](repo Repo[T], validate *validator.Validate, prepare func(r *http.Request, doc *T) error, after func(ctx context.Context, doc *T) error) apiHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		var doc T
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			return utils.BadRequest("Invalid JSON payload")
		}
		if prepare != nil {
			if err := prepare(r, &doc); err != nil {
				return err
			}
		}
		if err := validate.Struct(&doc); err != nil {
			return err
		}
		id, err := repo.InsertOne(r.Context(), &doc)
		if err != nil {
			return err
		}
		created, err := repo.FindByIDUnscoped(r.Context(), id)
		if err != nil {
			return err
		}
		if after != nil {
			if err := after(r.Context(), created); err != nil {
				return err
			}
		}
		respond(w, http.StatusCreated, Envelope{
			Status: "success",
			Data:   map[string]interface{}{"data": created},
		})
		return nil
	}
}

// GetOne fetches by id, optionally eager-joining related documents through
// populate.
func GetOne[T any](repo Repo[T], populate func(ctx context.Context, doc *T) error) apiHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r)
		if err != nil {
			return err
		}
		doc, err := repo.FindByID(r.Context(), id)
		if err != nil {
			return err
		}
		if populate != nil {
			if err := populate(r.Context(), doc); err != nil {
				return err
			}
		}
		respond(w, http.StatusOK, Envelope{
			Status: "success",
			Data:   map[string]interface{}{"data": doc},
		})
		return nil
	}
}

// GetAll lists documents through the query feature builder. parentScope
// pre-filters by a parent route param, e.g. reviews nested under a tour.
func GetAll[T any](repo Repo[T], parentScope func(r *http.Request) (bson.M, error)) apiHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		var base bson.M
		if parentScope != nil {
			var err error
			base, err = parentScope(r)
			if err != nil {
				return err
			}
		}
		features := store.NewFeatures(r.URL.Query()).
			ApplyFilter().
			ApplySort().
			SelectFields().
			Paginate()
		docs, err := repo.FindAll(r.Context(), features, base)
		if err != nil {
			return err
		}
		respond(w, http.StatusOK, Envelope{
			Status:  "success",
			Results: results(len(docs)),
			Data:    map[string]interface{}{"documents": docs},
		})
		return nil
	}
}

// UpdateOne overlays the partial body on the stored document, re-runs schema
// validation, then persists the sanitized field set.
func UpdateOne[T any](repo Repo[T], validate *validator.Validate, sanitize func(updates bson.M) bson.M, after func(ctx context.Context, doc *T) error) apiHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r)
		if err != nil {
			return err
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return err
		}
		var updates bson.M
		if err := json.Unmarshal(body, &updates); err != nil {
			return utils.BadRequest("Invalid JSON payload")
		}
		delete(updates, "_id")
		delete(updates, "id")
		if sanitize != nil {
			updates = sanitize(updates)
		}
		if len(updates) == 0 {
			return utils.BadRequest("No updatable fields in request body")
		}

		current, err := repo.FindByID(r.Context(), id)
		if err != nil {
			return err
		}
		sanitizedBody, err := json.Marshal(updates)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(sanitizedBody, current); err != nil {
			return utils.BadRequest("Invalid JSON payload")
		}
		if err := validate.Struct(current); err != nil {
			return err
		}
		set, err := typedUpdates(current, updates)
		if err != nil {
			return err
		}

		doc, err := repo.UpdateByID(r.Context(), id, set)
		if err != nil {
			return err
		}
		if after != nil {
			if err := after(r.Context(), doc); err != nil {
				return err
			}
		}
		respond(w, http.StatusOK, Envelope{
			Status: "success",
			Data:   map[string]interface{}{"data": doc},
		})
		return nil
	}
}

// typedUpdates rebuilds the $set document from the validated struct so
// values persist with their schema types (dates, object ids) instead of the
// JSON-decoded ones. Keys the struct's bson encoding omits fall back to the
// decoded value.
func typedUpdates[T any](current *T, updates bson.M) (bson.M, error) {
	raw, err := bson.Marshal(current)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	set := bson.M{}
	for key, val := range updates {
		if typed, ok := doc[key]; ok {
			set[key] = typed
		} else {
			set[key] = val
		}
	}
	return set, nil
}

// DeleteOne removes by id and returns 204 with an empty body.
func DeleteOne[T any](repo Repo[T], after func(ctx context.Context, doc *T) error) apiHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r)
		if err != nil {
			return err
		}
		doc, err := repo.DeleteByID(r.Context(), id)
		if err != nil {
			return err
		}
		if after != nil {
			if err := after(r.Context(), doc); err != nil {
				return err
			}
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}
