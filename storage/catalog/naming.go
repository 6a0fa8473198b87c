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
	"strings"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/juju/errors"
	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
	"go.uber.org/zap"
)

// Namer renders display names and image links of entries missing them.
type Namer struct {
	name  *exec.Template
	image *exec.Template
}

// NewNamer parses templates. An empty template leaves the field untouched.
func NewNamer(nameTemplate, imageTemplate string) (*Namer, error) {
	var (
		namer Namer
		err   error
	)
	if nameTemplate != "" {
		if namer.name, err = gonja.FromString(nameTemplate); err != nil {
			return nil, errors.Annotatef(err, "parse name template")
		}
	}
	if imageTemplate != "" {
		if namer.image, err = gonja.FromString(imageTemplate); err != nil {
			return nil, errors.Annotatef(err, "parse image template")
		}
	}
	return &namer, nil
}

// Complete fills empty names and images in place.
func (n *Namer) Complete(entries []Entry) {
	for i := range entries {
		entry := &entries[i]
		if entry.Name == "" && n.name != nil {
			if name, err := render(n.name, entry); err != nil {
				log.Logger().Warn("failed to render entry name", zap.Int64("id", entry.Id), zap.Error(err))
			} else {
				entry.Name = name
			}
		}
		if entry.Image == "" && n.image != nil {
			if image, err := render(n.image, entry); err != nil {
				log.Logger().Warn("failed to render entry image", zap.Int64("id", entry.Id), zap.Error(err))
			} else {
				entry.Image = image
			}
		}
	}
}

func render(template *exec.Template, entry *Entry) (string, error) {
	var buf strings.Builder
	ctx := exec.NewContext(map[string]any{
		"id":               entry.Id,
		"brand":            entry.Brand,
		"release_year":     entry.ReleaseYear,
		"operating_system": entry.OperatingSystem,
		"ram":              entry.RAM,
		"storage":          entry.InternalStorage,
		"processor":        entry.Processor,
	})
	if err := template.Execute(&buf, ctx); err != nil {
		return "", errors.Trace(err)
	}
	return strings.TrimSpace(buf.String()), nil
}
