package forge

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	nullPayloadLiteralConstant          = "null"
	nameFieldConstant                   = "name"
	cloneURLFieldConstant               = "clone_url"
	sshURLFieldConstant                 = "ssh_url"
	htmlURLFieldConstant                = "html_url"
	privateFieldConstant                = "private"
	defaultBranchFieldConstant          = "default_branch"
	decodeMissingFieldTemplateConstant  = "repository %d is missing required field %q"
	decodeMalformedPageTemplateConstant = "malformed repository page: %v"
	decodeErrorFallbackMessageConstant  = "repository page decoding failed"
)

// DecodeError reports a page that could not be decoded into repositories.
type DecodeError struct {
	// Index is the zero-based position of the offending item, or -1 for a malformed page.
	Index int
	// Field names the missing required field when Index is non-negative.
	Field string
	Cause error
}

// Error describes the decoding failure.
func (decodeError DecodeError) Error() string {
	if decodeError.Index >= 0 && len(decodeError.Field) > 0 {
		return fmt.Sprintf(decodeMissingFieldTemplateConstant, decodeError.Index, decodeError.Field)
	}
	if decodeError.Cause != nil {
		return fmt.Sprintf(decodeMalformedPageTemplateConstant, decodeError.Cause)
	}
	return decodeErrorFallbackMessageConstant
}

// Unwrap exposes the underlying JSON error.
func (decodeError DecodeError) Unwrap() error {
	return decodeError.Cause
}

type repositoryPayload struct {
	Name          *string `json:"name"`
	CloneURL      *string `json:"clone_url"`
	SSHURL        *string `json:"ssh_url"`
	HTMLURL       *string `json:"html_url"`
	Private       *bool   `json:"private"`
	DefaultBranch *string `json:"default_branch"`
	Language      *string `json:"language"`
}

// DecodePage converts one listing response body into repositories. An empty
// body or a JSON null is an absent page and yields no repositories.
func DecodePage(body []byte) ([]Repository, error) {
	trimmedBody := bytes.TrimSpace(body)
	if len(trimmedBody) == 0 || string(trimmedBody) == nullPayloadLiteralConstant {
		return nil, nil
	}

	var payloads []repositoryPayload
	if unmarshalError := json.Unmarshal(trimmedBody, &payloads); unmarshalError != nil {
		return nil, DecodeError{Index: -1, Cause: unmarshalError}
	}

	repositories := make([]Repository, 0, len(payloads))
	for payloadIndex, payload := range payloads {
		repository, decodeError := payload.toRepository(payloadIndex)
		if decodeError != nil {
			return nil, decodeError
		}
		repositories = append(repositories, repository)
	}

	return repositories, nil
}

func (payload repositoryPayload) toRepository(index int) (Repository, error) {
	requiredStrings := []struct {
		field string
		value *string
	}{
		{field: nameFieldConstant, value: payload.Name},
		{field: cloneURLFieldConstant, value: payload.CloneURL},
		{field: sshURLFieldConstant, value: payload.SSHURL},
		{field: htmlURLFieldConstant, value: payload.HTMLURL},
		{field: defaultBranchFieldConstant, value: payload.DefaultBranch},
	}
	for _, required := range requiredStrings {
		if required.value == nil {
			return Repository{}, DecodeError{Index: index, Field: required.field}
		}
	}
	if payload.Private == nil {
		return Repository{}, DecodeError{Index: index, Field: privateFieldConstant}
	}
	if len(*payload.Name) == 0 {
		return Repository{}, DecodeError{Index: index, Field: nameFieldConstant}
	}

	language := UnknownLanguageConstant
	if payload.Language != nil {
		language = *payload.Language
	}

	return Repository{
		Name:          *payload.Name,
		CloneURL:      *payload.CloneURL,
		SSHURL:        *payload.SSHURL,
		WebURL:        *payload.HTMLURL,
		IsPrivate:     *payload.Private,
		DefaultBranch: *payload.DefaultBranch,
		Language:      language,
	}, nil
}
