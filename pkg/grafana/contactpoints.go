package grafana

import (
	"context"
	"net/http"

	"github.com/grafana/grafana-openapi-client-go/models"
)

const (
	contactPointsPath = "/api/v1/provisioning/contact-points"
	contactPointPath  = "/api/v1/provisioning/contact-points/{uid}"
	policiesPath      = "/api/v1/provisioning/policies"
)

// ListContactPoints returns every receiver of every contact point.
func (c *Client) ListContactPoints(ctx context.Context) ([]*models.EmbeddedContactPoint, error) {
	response, err := c.execute(c.request(ctx), http.MethodGet, contactPointsPath)
	if err != nil {
		return nil, err
	}

	var contactPoints []*models.EmbeddedContactPoint
	if err := decode(response, &contactPoints); err != nil {
		return nil, err
	}
	return contactPoints, nil
}

// CreateContactPoint adds a receiver. Receivers sharing a name form one
// contact point.
func (c *Client) CreateContactPoint(ctx context.Context, cp *models.EmbeddedContactPoint) (*models.EmbeddedContactPoint, error) {
	req := c.request(ctx).
		SetHeader(disableProvenanceHeader, "true").
		SetBody(cp)

	response, err := c.execute(req, http.MethodPost, contactPointsPath)
	if err != nil {
		return nil, err
	}

	var created models.EmbeddedContactPoint
	if err := decode(response, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateContactPoint replaces the receiver identified by uid.
func (c *Client) UpdateContactPoint(ctx context.Context, uid string, cp *models.EmbeddedContactPoint) error {
	req := c.request(ctx).
		SetHeader(disableProvenanceHeader, "true").
		SetPathParam("uid", uid).
		SetBody(cp)

	_, err := c.execute(req, http.MethodPut, contactPointPath)
	return err
}

// PutPolicyTree replaces the whole notification policy tree.
func (c *Client) PutPolicyTree(ctx context.Context, tree map[string]any) error {
	req := c.request(ctx).
		SetHeader(disableProvenanceHeader, "true").
		SetBody(tree)

	_, err := c.execute(req, http.MethodPut, policiesPath)
	return err
}
