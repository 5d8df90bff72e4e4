package notify

import "context"

// Organisation groups services under a department.
type Organisation struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Domains          []string `json:"domains"`
	OrganisationType string   `json:"organisation_type"`
}

// GetOrganisations lists every organisation.
func (c *Client) GetOrganisations(ctx context.Context) ([]Organisation, error) {
	var organisations []Organisation
	if err := c.get(ctx, "/organisations", nil, &organisations); err != nil {
		return nil, err
	}
	return organisations, nil
}

// GetOrganisation fetches one organisation.
func (c *Client) GetOrganisation(ctx context.Context, organisationID string) (*Organisation, error) {
	var organisation Organisation
	if err := c.get(ctx, "/organisations/"+organisationID, nil, &organisation); err != nil {
		return nil, err
	}
	return &organisation, nil
}

// UpdateOrganisation patches organisation fields.
func (c *Client) UpdateOrganisation(ctx context.Context, organisationID string, fields map[string]any) error {
	return c.post(ctx, "/organisations/"+organisationID, fields, nil)
}

// LiveCounts reports how many services and organisations are live.
type LiveCounts struct {
	Services      int `json:"services"`
	Organisations int `json:"organisations"`
}

// GetLiveServiceAndOrganisationCounts returns platform-wide live counts.
func (c *Client) GetLiveServiceAndOrganisationCounts(ctx context.Context) (LiveCounts, error) {
	var counts LiveCounts
	if err := c.get(ctx, "/organisations/live-service-and-organisation-counts", nil, &counts); err != nil {
		return LiveCounts{}, err
	}
	return counts, nil
}
