package agents

import "github.com/agentdeck/agentdeck/pkg/repository"

func scanAgent(s repository.Scanner) (Agent, error) {
	var a Agent
	err := s.Scan(
		&a.ID, &a.Name, &a.Description, &a.Framework, &a.Model,
		&a.ModelParams, &a.Config, &a.Status, &a.Version,
		&a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func scanVersion(s repository.Scanner) (Version, error) {
	var v Version
	err := s.Scan(
		&v.ID, &v.AgentID, &v.VersionNumber, &v.Name, &v.Description,
		&v.Model, &v.ModelParams, &v.Config, &v.IsCurrent, &v.CreatedAt,
	)
	return v, err
}
