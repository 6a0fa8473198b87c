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
	"database/sql"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage"
	"github.com/juju/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

// SQLDatabase stores the catalog in MySQL, Postgres or SQLite.
type SQLDatabase struct {
	storage.TablePrefix
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
}

// Init creates the entries table.
func (d *SQLDatabase) Init() error {
	db := d.gormDB.Table(d.EntriesTable())
	if d.driver == MySQL {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

func (d *SQLDatabase) Purge() error {
	tx := d.gormDB.Table(d.EntriesTable()).Where("1 = 1").Delete(&Entry{})
	return errors.Trace(tx.Error)
}

func (d *SQLDatabase) GetEntries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	tx := d.gormDB.WithContext(ctx).Table(d.EntriesTable()).Order("id").Find(&entries)
	if tx.Error != nil {
		return nil, errors.Trace(tx.Error)
	}
	return entries, nil
}

func (d *SQLDatabase) BatchInsertEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx := d.gormDB.WithContext(ctx).Table(d.EntriesTable()).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entries)
	return errors.Trace(tx.Error)
}
