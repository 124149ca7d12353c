package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
)

// BuildOpenAPI assembles the OpenAPI 3.0 document for the running
// configuration. It is regenerated at startup and on config change, so
// the served document always reflects the actual listen address and
// process offering.
func BuildOpenAPI(cfg *config.Config, version string) map[string]any {
	if version == "" {
		version = "dev"
	}

	process := safeToNetCDFProcess()

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       "NetCDF on-demand",
			"description": "Downloads Copernicus Sentinel products and serves them as NetCDF through OPeNDAP",
			"version":     version,
			"contact": map[string]any{
				"name": "Norwegian National Ground Segment (NBS)",
				"url":  "https://github.com/NasjonaltBakkeSegment/NetCDF-on-demand",
			},
		},
		"servers": []any{
			map[string]any{"url": "http://" + cfg.Server.ListenAddress},
		},
		"tags": []any{
			map[string]any{"name": "server", "description": "Landing page, conformance and service health"},
			map[string]any{"name": "processes", "description": "Process discovery and execution"},
			map[string]any{"name": "jobs", "description": "Job monitoring and dismissal"},
		},
		"paths": map[string]any{
			"/": map[string]any{
				"get": operation("getLandingPage", "server", "Landing page",
					jsonResponse("200", "The landing page with links into the API")),
			},
			"/conformance": map[string]any{
				"get": operation("getConformance", "server", "Conformance declaration",
					jsonResponse("200", "The conformance classes this API implements")),
			},
			"/openapi": map[string]any{
				"get": operation("getOpenAPI", "server", "This document",
					map[string]any{"200": map[string]any{
						"description": "The OpenAPI 3.0 description of the API",
						"content": map[string]any{
							contentTypeOpenAPI: map[string]any{"schema": map[string]any{"type": "object"}},
						},
					}}),
			},
			"/processes": map[string]any{
				"get": operation("getProcesses", "processes", "List the available processes",
					jsonResponse("200", "Summaries of the processes this service offers")),
			},
			"/processes/{processID}": map[string]any{
				"get": withParams(
					operation("getProcessDescription", "processes", "Describe a process",
						jsonResponse("200", "The process description with its inputs and outputs"),
						exceptionResponse("404", "No process with the given identifier")),
					pathParam("processID", "Process identifier, currently always "+process.ID)),
			},
			"/processes/{processID}/execution": map[string]any{
				"post": withBody(
					withParams(
						operation("executeProcess", "processes", "Execute a process",
							jsonResponse("200", "The results of a synchronous execution"),
							jsonResponse("201", "The status of the accepted asynchronous job"),
							exceptionResponse("400", "Missing or malformed execute request"),
							exceptionResponse("404", "No process with the given identifier"),
							exceptionResponse("503", "The job queue is full")),
						pathParam("processID", "Process identifier, currently always "+process.ID)),
					executeRequestSchema(process)),
			},
			"/jobs": map[string]any{
				"get": withParams(
					operation("getJobs", "jobs", "List jobs, newest first",
						jsonResponse("200", "The job list"),
						exceptionResponse("400", "Invalid limit parameter")),
					map[string]any{
						"name":        "limit",
						"in":          "query",
						"description": "Maximum number of jobs returned",
						"required":    false,
						"schema":      map[string]any{"type": "integer", "minimum": 1},
					}),
			},
			"/jobs/{jobID}": map[string]any{
				"get": withParams(
					operation("getJobStatus", "jobs", "Retrieve the status of a job",
						jsonResponse("200", "The job status document"),
						exceptionResponse("404", "No job with the given identifier")),
					pathParam("jobID", "Job identifier")),
				"delete": withParams(
					operation("dismissJob", "jobs", "Dismiss a job that has not finished",
						jsonResponse("200", "The status document of the dismissed job"),
						exceptionResponse("404", "No job with the given identifier"),
						exceptionResponse("410", "The job has already finished")),
					pathParam("jobID", "Job identifier")),
			},
			"/jobs/{jobID}/results": map[string]any{
				"get": withParams(
					operation("getJobResults", "jobs", "Retrieve the results of a finished job",
						jsonResponse("200", "The result document with OPeNDAP links"),
						exceptionResponse("404", "No such job, or the job has not finished yet"),
						exceptionResponse("410", "The job was dismissed"),
						exceptionResponse("500", "The job failed")),
					pathParam("jobID", "Job identifier")),
			},
			"/health": map[string]any{
				"get": operation("getHealth", "server", "Readiness of the service and its dependencies",
					jsonResponse("200", "All checks passed"),
					jsonResponse("503", "One or more checks failed")),
			},
			"/health/live": map[string]any{
				"get": operation("getLiveness", "server", "Liveness of the process",
					jsonResponse("200", "The process is up")),
			},
			"/health/ready": map[string]any{
				"get": operation("getReadiness", "server", "Readiness of the service and its dependencies",
					jsonResponse("200", "All checks passed"),
					jsonResponse("503", "One or more checks failed")),
			},
			"/health/version": map[string]any{
				"get": operation("getVersion", "server", "Build metadata of the running binary",
					jsonResponse("200", "Version, commit and build time")),
			},
			"/metrics": map[string]any{
				"get": operation("getMetrics", "server", "Prometheus metrics",
					map[string]any{"200": map[string]any{
						"description": "Metrics in the Prometheus text exposition format",
						"content": map[string]any{
							"text/plain": map[string]any{"schema": map[string]any{"type": "string"}},
						},
					}}),
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"exception": map[string]any{
					"type":     "object",
					"required": []any{"code", "description"},
					"properties": map[string]any{
						"code":        map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
					},
				},
				"statusInfo": map[string]any{
					"type":     "object",
					"required": []any{"type", "jobID", "processID", "status", "created"},
					"properties": map[string]any{
						"type":      map[string]any{"type": "string", "enum": []any{"process"}},
						"jobID":     map[string]any{"type": "string"},
						"processID": map[string]any{"type": "string"},
						"status": map[string]any{
							"type": "string",
							"enum": []any{"accepted", "running", "successful", "failed", "dismissed"},
						},
						"message":  map[string]any{"type": "string"},
						"created":  map[string]any{"type": "string", "format": "date-time"},
						"started":  map[string]any{"type": "string", "format": "date-time"},
						"finished": map[string]any{"type": "string", "format": "date-time"},
					},
				},
				"results": map[string]any{
					"type":     "object",
					"required": []any{"id", "value"},
					"properties": map[string]any{
						"id": map[string]any{"type": "string", "enum": []any{outputFilepath}},
						"value": map[string]any{
							"type":     "object",
							"required": []any{"message", "links"},
							"properties": map[string]any{
								"message":  map[string]any{"type": "string"},
								"links":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
								"failures": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							},
						},
					},
				},
			},
		},
	}
}

func operation(id, tag, summary string, responses ...map[string]any) map[string]any {
	merged := map[string]any{}
	for _, r := range responses {
		for code, response := range r {
			merged[code] = response
		}
	}
	return map[string]any{
		"operationId": id,
		"tags":        []any{tag},
		"summary":     summary,
		"responses":   merged,
	}
}

func jsonResponse(code, description string) map[string]any {
	return map[string]any{code: map[string]any{
		"description": description,
		"content": map[string]any{
			contentTypeJSON: map[string]any{"schema": map[string]any{"type": "object"}},
		},
	}}
}

func exceptionResponse(code, description string) map[string]any {
	return map[string]any{code: map[string]any{
		"description": description,
		"content": map[string]any{
			contentTypeJSON: map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/exception"},
			},
		},
	}}
}

func pathParam(name, description string) map[string]any {
	return map[string]any{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      map[string]any{"type": "string"},
	}
}

func withParams(op map[string]any, params ...map[string]any) map[string]any {
	list := make([]any, 0, len(params))
	for _, p := range params {
		list = append(list, p)
	}
	op["parameters"] = list
	return op
}

func withBody(op map[string]any, schema map[string]any) map[string]any {
	op["requestBody"] = map[string]any{
		"required": true,
		"content": map[string]any{
			contentTypeJSON: map[string]any{"schema": schema},
		},
	}
	return op
}

func executeRequestSchema(process processDescription) map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"inputs"},
		"properties": map[string]any{
			"inputs": map[string]any{
				"type":     "object",
				"required": []any{"product_names"},
				"properties": map[string]any{
					"product_names": process.Inputs["product_names"].Schema,
					"email":         process.Inputs["email"].Schema,
				},
			},
			"mode": map[string]any{
				"type":        "string",
				"enum":        []any{"sync", "async"},
				"description": "Force the execution mode without the Prefer header",
			},
		},
	}
}

// MarshalOpenAPI renders the document as indented JSON with a trailing
// newline, the form the artifact file carries on disk.
func MarshalOpenAPI(doc map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OpenAPI document: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteOpenAPI writes the rendered document to path atomically, via a
// temp file in the same directory, so a reader never sees a torn write.
func WriteOpenAPI(path string, doc []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create OpenAPI directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".openapi-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp OpenAPI file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write OpenAPI document: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod OpenAPI document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close OpenAPI document: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move OpenAPI document into place: %w", err)
	}
	return nil
}
