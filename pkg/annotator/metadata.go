package annotator

import (
	"github.com/cognicore/annotator/pkg/annotator/embed"
	"github.com/cognicore/annotator/pkg/annotator/entities"
)

// ProjectMetadata is the aggregate result of one annotation run. The caller
// owns it and is responsible for persisting it.
type ProjectMetadata struct {
	RunID           string            `json:"run_id"`
	Language        string            `json:"language,omitempty"`
	RawText         string            `json:"raw_text"`
	CleanedText     string            `json:"cleaned_text"`
	LemmatisedText  string            `json:"lemmatised_text"`
	Keywords        []string          `json:"keywords"`
	NamedEntities   entities.Entities `json:"named_entities"`
	RepositoryLinks []string          `json:"repository_links"`
	Embedding       embed.Vector      `json:"embedding"`
	Summary         string            `json:"summary"`
	Description     string            `json:"description"`
	Annotation      string            `json:"annotation"`
	Tags            []string          `json:"tags"`
}
