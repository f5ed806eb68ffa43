package api

import "sprintbackend/models"

// DomainUserToAPIUser converts a domain User model to an API UserModel
func DomainUserToAPIUser(domainUser *models.User) *UserModel {
	if domainUser == nil {
		return nil
	}

	return &UserModel{
		ID:        domainUser.ID,
		Email:     domainUser.Email,
		CreatedAt: domainUser.CreatedAt,
		UpdatedAt: domainUser.UpdatedAt,
	}
}

// DomainJiraIntegrationToAPIJiraIntegration converts a domain JiraIntegration model
// to an API JiraIntegrationModel, dropping encrypted token material.
func DomainJiraIntegrationToAPIJiraIntegration(domainIntegration *models.JiraIntegration) *JiraIntegrationModel {
	if domainIntegration == nil {
		return nil
	}

	return &JiraIntegrationModel{
		ID:          domainIntegration.ID,
		JiraCloudID: domainIntegration.JiraCloudID,
		JiraBaseURL: domainIntegration.JiraBaseURL,
		Scopes:      domainIntegration.Scopes,
		CreatedAt:   domainIntegration.CreatedAt,
		UpdatedAt:   domainIntegration.UpdatedAt,
	}
}

// DomainJiraIntegrationsToAPIJiraIntegrations converts a slice of domain
// JiraIntegration models to API models.
func DomainJiraIntegrationsToAPIJiraIntegrations(domainIntegrations []*models.JiraIntegration) []*JiraIntegrationModel {
	apiIntegrations := make([]*JiraIntegrationModel, 0, len(domainIntegrations))
	for _, integration := range domainIntegrations {
		apiIntegrations = append(apiIntegrations, DomainJiraIntegrationToAPIJiraIntegration(integration))
	}
	return apiIntegrations
}
