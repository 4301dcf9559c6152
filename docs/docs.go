// Package docs registers the Swagger document served under /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "description": "Get basic worker information and capabilities",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Worker information",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.WorkerInfoResponse"}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "description": "Report whether the worker is connected to NATS",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.HealthResponse"}
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {"$ref": "#/definitions/handlers.HealthResponse"}
                    }
                }
            }
        },
        "/system/stats": {
            "get": {
                "description": "Get runtime, sample store and alert log statistics",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get system stats",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.StatsResponse"}
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "description": "Prometheus metrics in text exposition format",
                "produces": ["text/plain"],
                "tags": ["system"],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "worker_id": {"type": "string", "example": "worker-1"},
                "nats": {"type": "string", "example": "CONNECTED"}
            }
        },
        "handlers.WorkerInfoResponse": {
            "type": "object",
            "properties": {
                "worker_id": {"type": "string", "example": "worker-1"},
                "status": {"type": "string", "example": "running"},
                "version": {"type": "string", "example": "1.0.0"},
                "capabilities": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.StatsResponse": {
            "type": "object",
            "properties": {
                "worker_id": {"type": "string"},
                "uptime_seconds": {"type": "integer"},
                "memory_mb": {"type": "integer"},
                "cpu_cores": {"type": "integer"},
                "goroutines": {"type": "integer"},
                "go_version": {"type": "string"},
                "cameras": {"type": "integer"},
                "samples": {"type": "integer"},
                "logged_alerts": {"type": "integer"},
                "timestamp": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Kepler Congestion API",
	Description:      "Congestion analytics worker: density sample intake over NATS, congestion evaluation, stage alerts and periodic reports",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
