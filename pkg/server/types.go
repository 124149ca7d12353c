package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/jobs"
)

// Content types served by the API.
const (
	contentTypeJSON    = "application/json"
	contentTypeOpenAPI = "application/vnd.oai.openapi+json;version=3.0"
)

// Exception codes in the OGC API - Processes vocabulary.
const (
	codeNotFound         = "NotFound"
	codeNoSuchProcess    = "NoSuchProcess"
	codeNoSuchJob        = "NoSuchJob"
	codeResultNotReady   = "ResultNotReady"
	codeJobDismissed     = "JobDismissed"
	codeJobFinished      = "JobFinished"
	codeMissingParameter = "MissingParameterValue"
	codeInvalidParameter = "InvalidParameterValue"
	codeServerError      = "NoApplicableCode"
)

// outputFilepath is the identifier of the single process output.
const outputFilepath = "filepath"

// resultMessage accompanies every completed batch. Existing clients key
// on this string, so it must not change.
const resultMessage = "Files downloaded and converted to NetCDF format"

// exception is the error document returned on every non-2xx response.
type exception struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// link is an OGC API link object.
type link struct {
	Href     string `json:"href"`
	Rel      string `json:"rel"`
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Hreflang string `json:"hreflang,omitempty"`
}

// landingPage is the document served at the API root.
type landingPage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Links       []link `json:"links"`
}

// conformanceDeclaration lists the conformance classes the API claims.
type conformanceDeclaration struct {
	ConformsTo []string `json:"conformsTo"`
}

// processSummary is the short form of a process, used in process lists.
type processSummary struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Version            string   `json:"version"`
	Keywords           []string `json:"keywords,omitempty"`
	JobControlOptions  []string `json:"jobControlOptions"`
	OutputTransmission []string `json:"outputTransmission"`
	Links              []link   `json:"links,omitempty"`
}

// processDescription is the full form, including inputs and outputs.
type processDescription struct {
	processSummary
	Inputs  map[string]inputDescription  `json:"inputs"`
	Outputs map[string]outputDescription `json:"outputs"`
}

type inputDescription struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
	MinOccurs   int            `json:"minOccurs"`
	MaxOccurs   int            `json:"maxOccurs,omitempty"`
	Keywords    []string       `json:"keywords,omitempty"`
}

type outputDescription struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

type processList struct {
	Processes []processSummary `json:"processes"`
	Links     []link           `json:"links"`
}

// safeToNetCDFProcess describes the one process this service offers.
// The identifier, version and input names are part of the deployed
// contract and fixed.
func safeToNetCDFProcess() processDescription {
	return processDescription{
		processSummary: processSummary{
			ID:                 jobs.ProcessSafeToNetCDF,
			Title:              "Safe to NetCDF",
			Description:        "A process that converts a SAFE file to a NetCDF file",
			Version:            "0.0.1",
			Keywords:           []string{"safe", "netcdf"},
			JobControlOptions:  []string{"sync-execute", "async-execute"},
			OutputTransmission: []string{"value"},
			Links: []link{{
				Href:     "https://github.com/NasjonaltBakkeSegment/NetCDF-on-demand",
				Rel:      "about",
				Type:     "text/html",
				Title:    "information",
				Hreflang: "en-US",
			}},
		},
		Inputs: map[string]inputDescription{
			"product_names": {
				Title:       "Product names",
				Description: "Comma separated list of product names to be downloaded and converted from ColHub Archive",
				Schema: map[string]any{
					"oneOf": []any{
						map[string]any{"type": "string"},
						map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
				MinOccurs: 1,
				MaxOccurs: 1,
				Keywords:  []string{"product names"},
			},
			"email": {
				Title:       "Notification address",
				Description: "Email address to notify when the request has been processed",
				Schema:      map[string]any{"type": "string", "format": "email"},
				MinOccurs:   0,
				MaxOccurs:   1,
			},
		},
		Outputs: map[string]outputDescription{
			outputFilepath: {
				Title:       "Output files",
				Description: "The OPeNDAP links to the output NetCDF files",
				Schema: map[string]any{
					"type":             "object",
					"contentMediaType": "application/json",
				},
			},
		},
	}
}

// StringList decodes either a JSON array of strings or a single
// comma-separated string. Requests have always carried product names in
// the comma form; the array form is accepted alongside it. Entries are
// trimmed and empty ones dropped.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return fmt.Errorf("expected a string or an array of strings")
		}
		names = strings.Split(joined, ",")
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	*l = out
	return nil
}

// executeRequest is the body of POST /processes/{processID}/execution.
// Mode is an extension field: "async" forces asynchronous execution
// without the Prefer header.
type executeRequest struct {
	Inputs   executeInputs `json:"inputs"`
	Mode     string        `json:"mode"`
	Response string        `json:"response"`
}

type executeInputs struct {
	ProductNames StringList `json:"product_names"`
	Email        string     `json:"email"`
}

// statusInfo is the OGC status document for a job: the stored record
// plus the fixed type discriminator and navigation links.
type statusInfo struct {
	Type string `json:"type"`
	*jobs.Job
	Links []link `json:"links,omitempty"`
}

func newStatusInfo(job *jobs.Job) statusInfo {
	info := statusInfo{Type: "process", Job: job}
	info.Links = append(info.Links, link{
		Href: "/jobs/" + job.ID,
		Rel:  "self",
		Type: contentTypeJSON,
	})
	if job.Status == jobs.StatusSuccessful {
		info.Links = append(info.Links, link{
			Href: "/jobs/" + job.ID + "/results",
			Rel:  "http://www.opengis.net/def/rel/ogc/1.0/results",
			Type: contentTypeJSON,
		})
	}
	return info
}

type jobList struct {
	Jobs  []statusInfo `json:"jobs"`
	Links []link       `json:"links"`
}

// resultValue is the value of the filepath output: the outcome message,
// the OPeNDAP links that were served and the product names that failed.
type resultValue struct {
	Message  string   `json:"message"`
	Links    []string `json:"links"`
	Failures []string `json:"failures,omitempty"`
}

// resultDocument is returned by synchronous execution and by
// GET /jobs/{id}/results.
type resultDocument struct {
	ID    string      `json:"id"`
	Value resultValue `json:"value"`
}

func newResultDocument(job *jobs.Job) resultDocument {
	links := job.Links
	if links == nil {
		links = []string{}
	}
	return resultDocument{
		ID: outputFilepath,
		Value: resultValue{
			Message:  resultMessage,
			Links:    links,
			Failures: job.Failures,
		},
	}
}
