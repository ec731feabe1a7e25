package zoho

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	commonhttp "omerhsa-quotes/internal/common/http"
)

// CRMClient talks to the Zoho CRM v3 REST API.
type CRMClient struct {
	apiKey     string
	oauthToken string
	baseURL    string
	http       *commonhttp.Client
}

type Contact struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"Email"`
	FirstName   string `json:"First_Name"`
	LastName    string `json:"Last_Name"`
	Phone       string `json:"Phone,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	Description string `json:"Description,omitempty"`
}

type Lead struct {
	ID          string `json:"id,omitempty"`
	FirstName   string `json:"First_Name"`
	LastName    string `json:"Last_Name"`
	Email       string `json:"Email,omitempty"`
	Phone       string `json:"Phone"`
	City        string `json:"City,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	Status      string `json:"Lead_Status,omitempty"`
	Description string `json:"Description,omitempty"`
}

type writeResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(apiKey, oauthToken, baseURL string) *CRMClient {
	if baseURL == "" {
		baseURL = "https://www.zohoapis.com/crm/v3"
	}
	return &CRMClient{
		apiKey:     apiKey,
		oauthToken: oauthToken,
		baseURL:    baseURL,
		http:       commonhttp.NewClient(30 * time.Second),
	}
}

func (c *CRMClient) headers() map[string]string {
	return map[string]string{"Authorization": "Zoho-oauthtoken " + c.oauthToken}
}

// CreateLead inserts a lead and returns its Zoho id.
func (c *CRMClient) CreateLead(ctx context.Context, lead *Lead) (string, error) {
	return c.insert(ctx, "Leads", []Lead{*lead})
}

// CreateContact inserts a contact and returns its Zoho id.
func (c *CRMClient) CreateContact(ctx context.Context, contact *Contact) (string, error) {
	return c.insert(ctx, "Contacts", []Contact{*contact})
}

func (c *CRMClient) insert(ctx context.Context, module string, records interface{}) (string, error) {
	var resp writeResponse
	_, err := c.http.DoJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s", c.baseURL, module),
		c.headers(),
		map[string]interface{}{"data": records},
		&resp)
	if err != nil {
		return "", fmt.Errorf("failed to create %s record: %w", module, err)
	}

	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no data in %s response", module)
	}
	if resp.Data[0].Status != "success" {
		return "", fmt.Errorf("%s creation failed: %s", module, resp.Data[0].Message)
	}
	return resp.Data[0].Details.ID, nil
}

// SearchLeads returns leads matching email. Zoho answers 204 when nothing matches.
func (c *CRMClient) SearchLeads(ctx context.Context, email string) ([]Lead, error) {
	var result struct {
		Data []Lead `json:"data"`
	}
	if err := c.search(ctx, "Leads", email, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// SearchContacts returns contacts matching email.
func (c *CRMClient) SearchContacts(ctx context.Context, email string) ([]Contact, error) {
	var result struct {
		Data []Contact `json:"data"`
	}
	if err := c.search(ctx, "Contacts", email, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (c *CRMClient) search(ctx context.Context, module, email string, out interface{}) error {
	endpoint := fmt.Sprintf("%s/%s/search?email=%s", c.baseURL, module, url.QueryEscape(email))
	if _, err := c.http.DoJSON(ctx, http.MethodGet, endpoint, c.headers(), nil, out); err != nil {
		return fmt.Errorf("failed to search %s: %w", module, err)
	}
	return nil
}
