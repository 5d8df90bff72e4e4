package notify

import (
	"context"
	"net/url"
	"strconv"
)

// Template is a versioned message body owned by a service.
type Template struct {
	ID                    string `json:"id"`
	ServiceID             string `json:"service"`
	Name                  string `json:"name"`
	Type                  string `json:"template_type"`
	Content               string `json:"content"`
	Subject               string `json:"subject"`
	Version               int    `json:"version"`
	RedactPersonalisation bool   `json:"redact_personalisation"`
	Archived              bool   `json:"archived"`
	FolderID              string `json:"folder"`
}

type templateEnvelope struct {
	Data Template `json:"data"`
}

type templateListEnvelope struct {
	Data []Template `json:"data"`
}

// GetServiceTemplates lists the current versions of a service's templates.
func (c *Client) GetServiceTemplates(ctx context.Context, serviceID string) ([]Template, error) {
	var envelope templateListEnvelope
	if err := c.get(ctx, "/service/"+serviceID+"/template", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// GetServiceTemplate fetches one template. A nil version returns the current
// version; a concrete version fetches that historical revision.
func (c *Client) GetServiceTemplate(ctx context.Context, serviceID, templateID string, version *int) (*Template, error) {
	var envelope templateEnvelope
	var query url.Values
	if version != nil {
		query = url.Values{"version": {strconv.Itoa(*version)}}
	}
	if err := c.get(ctx, "/service/"+serviceID+"/template/"+templateID, query, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// GetServiceTemplateVersions lists every revision of a template.
func (c *Client) GetServiceTemplateVersions(ctx context.Context, serviceID, templateID string) ([]Template, error) {
	var envelope templateListEnvelope
	if err := c.get(ctx, "/service/"+serviceID+"/template/"+templateID+"/versions", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// CreateTemplateInput describes a new template.
type CreateTemplateInput struct {
	Name     string `json:"name"`
	Type     string `json:"template_type"`
	Content  string `json:"content"`
	Subject  string `json:"subject,omitempty"`
	FolderID string `json:"parent_folder_id,omitempty"`
}

// CreateServiceTemplate creates a template at version 1.
func (c *Client) CreateServiceTemplate(ctx context.Context, serviceID string, input CreateTemplateInput) (*Template, error) {
	var envelope templateEnvelope
	if err := c.post(ctx, "/service/"+serviceID+"/template", input, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// UpdateServiceTemplate patches a template, minting a new current version.
func (c *Client) UpdateServiceTemplate(ctx context.Context, serviceID, templateID string, fields map[string]any) (*Template, error) {
	var envelope templateEnvelope
	if err := c.post(ctx, "/service/"+serviceID+"/template/"+templateID, fields, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// DeleteServiceTemplate archives a template.
func (c *Client) DeleteServiceTemplate(ctx context.Context, serviceID, templateID string) error {
	return c.post(ctx, "/service/"+serviceID+"/template/"+templateID, map[string]any{"archived": true}, nil)
}

// GetTemplateFolders lists a service's template folders.
func (c *Client) GetTemplateFolders(ctx context.Context, serviceID string) ([]TemplateFolderRecord, error) {
	var envelope struct {
		Data []TemplateFolderRecord `json:"template_folders"`
	}
	if err := c.get(ctx, "/service/"+serviceID+"/template-folder", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// TemplateFolderRecord is the wire shape of a template folder.
type TemplateFolderRecord struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	ParentID            string   `json:"parent_id"`
	UsersWithPermission []string `json:"users_with_permission"`
}
