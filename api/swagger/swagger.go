package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Edudyne Scheduler API",
        "description": "Quantum-inspired simulated annealing schedule generator",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/auth/admin/login": {
            "post": {
                "summary": "Exchange the admin password for an access token",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/schedule/generate": {
            "post": {
                "summary": "Generate a schedule proposal via the quantum-inspired annealer",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/schedule/battle": {
            "post": {
                "summary": "Race the annealer against the comparator solver family",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/schedule/save": {
            "post": {
                "summary": "Persist a generated proposal as a run",
                "responses": {
                    "201": {
                        "description": "Created"
                    }
                }
            }
        },
        "/schedule/runs": {
            "get": {
                "summary": "List saved runs",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/schedule/runs/{runId}": {
            "get": {
                "summary": "Get placement rows for a saved run",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "delete": {
                "summary": "Delete a saved run",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/schedule/runs/{runId}/calendar.ics": {
            "get": {
                "summary": "Export a saved run as an iCalendar feed",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
