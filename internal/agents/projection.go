package agents

import "github.com/agentdeck/agentdeck/pkg/query"

var projection = query.
	NewProjectionMap("public", "agents", "a").
	Project("id", "Id").
	Project("name", "Name").
	Project("description", "Description").
	Project("framework", "Framework").
	Project("model", "Model").
	Project("model_params", "ModelParams").
	Project("config", "Config").
	Project("status", "Status").
	Project("version", "Version").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "Name"}
