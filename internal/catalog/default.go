package catalog

// Default returns the built-in mission catalog.
func Default() *Catalog {
	return &Catalog{
		Stages: []Stage{
			{
				ID:    "stage-a",
				Title: "Stage A · Alpha gate",
				Groups: []Group{
					{
						ID:    "boot",
						Title: "Boot & replay",
						Actions: []Action{
							{ID: "stage-a1-boot-telemetry", Label: "Boot telemetry"},
							{ID: "stage-a2-crown-replays", Label: "Crown replays"},
						},
					},
					{
						ID:    "gate",
						Title: "Gate",
						Actions: []Action{
							{ID: "stage-a3-gate-shakeout", Label: "Gate shakeout"},
						},
					},
				},
			},
			{
				ID:    "stage-b",
				Title: "Stage B · Rehearsal",
				Groups: []Group{
					{
						ID:    "rehearsal",
						Title: "Rehearsal",
						Actions: []Action{
							{ID: "stage-b1-memory-proof", Label: "Memory proof"},
							{ID: "stage-b2-sonic-rehearsal", Label: "Sonic rehearsal"},
						},
					},
					{
						ID:    "connectors",
						Title: "Connectors",
						Actions: []Action{
							{ID: "stage-b3-connector-rotation", Label: "Connector rotation"},
						},
					},
				},
			},
			{
				ID:    "stage-c",
				Title: "Stage C · Readiness",
				Groups: []Group{
					{
						ID:    "exit",
						Title: "Exit review",
						Actions: []Action{
							{ID: "stage-c1-exit-checklist", Label: "Exit checklist"},
							{ID: "stage-c2-demo-storyline", Label: "Demo storyline"},
						},
					},
					{
						ID:    "readiness",
						Title: "Readiness",
						Actions: []Action{
							{ID: "stage-c3-readiness-sync", Label: "Readiness sync"},
							{ID: "stage-c4-operator-mcp-drill", Label: "Operator MCP drill"},
						},
					},
				},
			},
		},
		Operations: []Operation{
			{ID: "ignite", Label: "Ignition", Endpoint: "/start_ignition", Key: "I", Stream: true},
			{ID: "query", Label: "Memory query", Endpoint: "/memory/query", Key: "/", Prompt: "Query memory"},
			{ID: "handover", Label: "Handover", Endpoint: "/handover", Key: "H"},
		},
	}
}
