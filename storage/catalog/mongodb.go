// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"context"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB stores the catalog in a MongoDB collection.
type MongoDB struct {
	storage.TablePrefix
	client *mongo.Client
	dbName string
}

// Init creates the entries collection and its indices.
func (db *MongoDB) Init() error {
	ctx := context.Background()
	d := db.client.Database(db.dbName)
	collections, err := d.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return errors.Trace(err)
	}
	if !lo.Contains(collections, db.EntriesTable()) {
		if err = d.CreateCollection(ctx, db.EntriesTable()); err != nil {
			return errors.Trace(err)
		}
	}
	_, err = d.Collection(db.EntriesTable()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "brand", Value: 1}, {Key: "price", Value: 1}},
	})
	return errors.Trace(err)
}

func (db *MongoDB) Close() error {
	return db.client.Disconnect(context.Background())
}

func (db *MongoDB) Purge() error {
	c := db.client.Database(db.dbName).Collection(db.EntriesTable())
	_, err := c.DeleteMany(context.Background(), bson.M{})
	return errors.Trace(err)
}

func (db *MongoDB) GetEntries(ctx context.Context) ([]Entry, error) {
	c := db.client.Database(db.dbName).Collection(db.EntriesTable())
	r, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var entries []Entry
	for r.Next(ctx) {
		var entry Entry
		if err = r.Decode(&entry); err != nil {
			return nil, errors.Trace(err)
		}
		entries = append(entries, entry)
	}
	return entries, errors.Trace(r.Err())
}

func (db *MongoDB) BatchInsertEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	c := db.client.Database(db.dbName).Collection(db.EntriesTable())
	var models []mongo.WriteModel
	for _, entry := range entries {
		models = append(models, mongo.NewReplaceOneModel().
			SetUpsert(true).
			SetFilter(bson.M{"_id": entry.Id}).
			SetReplacement(entry))
	}
	_, err := c.BulkWrite(ctx, models)
	return errors.Trace(err)
}
