// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package validation provides struct validation using
go-playground/validator v10.

It wraps the library in a thread-safe singleton with error translation
matching the API's VALIDATION_ERROR envelope. Request structs declare
bounds as tags and the handlers call ValidateStruct before touching
storage:

	type ArticlesRequest struct {
	    Category string `validate:"omitempty,max=100"`
	    Limit    int    `validate:"min=1"`
	    Offset   int    `validate:"min=0,max=1000000"`
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
	    apiErr := verr.ToAPIError()
	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
	    return
	}

ToAPIError produces a single message with field details for one
failure, or a combined message with a per-field list when several
fields fail at once. The singleton caches struct metadata, so the
reflection cost is paid once per request type.
*/
package validation
