package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/notifyops/notify-admin/internal/identity"
	"github.com/notifyops/notify-admin/internal/notify"
)

// API is the slice of the Notifications API client the cache decorates.
// *notify.Client satisfies it.
type API interface {
	GetUser(ctx context.Context, userID string) (*identity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*identity.User, error)
	VerifyPassword(ctx context.Context, userID, password string) error
	SendVerifyCode(ctx context.Context, userID, codeType, to string) error
	CheckVerifyCode(ctx context.Context, userID, code, codeType string) (*identity.User, error)
	RegisterUser(ctx context.Context, input notify.RegisterUserInput) (*identity.User, error)
	UpdateUser(ctx context.Context, userID string, fields map[string]any) (*identity.User, error)
	ActivateUser(ctx context.Context, userID string) (*identity.User, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
	SendAlreadyRegisteredEmail(ctx context.Context, userID, email string) error
	GetUsersForService(ctx context.Context, serviceID string) ([]*identity.User, error)

	GetInvitedUser(ctx context.Context, inviteID string) (*identity.InvitedUser, error)
	CreateInvitedUser(ctx context.Context, input notify.CreateInviteInput) (*identity.InvitedUser, error)
	UpdateInvitedUserStatus(ctx context.Context, serviceID, inviteID string, status identity.InviteStatus) error
	AcceptInvite(ctx context.Context, inviteID, userID string) error
	RegisterFromInvite(ctx context.Context, input notify.RegisterFromInviteInput) (*identity.User, error)
	GetInvitedOrgUser(ctx context.Context, inviteID string) (*identity.InvitedOrgUser, error)
	AcceptOrgInvite(ctx context.Context, inviteID, userID string) error

	CreateService(ctx context.Context, input notify.CreateServiceInput) (string, error)
	IsServiceNameUnique(ctx context.Context, serviceID, name string) (bool, error)
	IsEmailFromUnique(ctx context.Context, serviceID, emailFrom string) (bool, error)
	GetReplyToAddresses(ctx context.Context, serviceID string) ([]notify.ReplyToAddress, error)
	UpdateReplyToAddress(ctx context.Context, serviceID, replyToID string, fields map[string]any) error
	ArchiveReplyToAddress(ctx context.Context, serviceID, replyToID string) error
	GetTemplateFolders(ctx context.Context, serviceID string) ([]notify.TemplateFolderRecord, error)

	GetService(ctx context.Context, serviceID string) (*notify.Service, error)
	UpdateService(ctx context.Context, serviceID string, fields map[string]any) (*notify.Service, error)
	CreateOrUpdateFreeSMSFragmentLimit(ctx context.Context, serviceID string, limit int) error
	GetServiceDataRetention(ctx context.Context, serviceID string) ([]notify.DataRetention, error)
	SetServiceDataRetention(ctx context.Context, serviceID, notificationType string, days int) error

	GetServiceTemplates(ctx context.Context, serviceID string) ([]notify.Template, error)
	GetServiceTemplate(ctx context.Context, serviceID, templateID string, version *int) (*notify.Template, error)
	GetServiceTemplateVersions(ctx context.Context, serviceID, templateID string) ([]notify.Template, error)
	CreateServiceTemplate(ctx context.Context, serviceID string, input notify.CreateTemplateInput) (*notify.Template, error)
	UpdateServiceTemplate(ctx context.Context, serviceID, templateID string, fields map[string]any) (*notify.Template, error)
	DeleteServiceTemplate(ctx context.Context, serviceID, templateID string) error

	GetOrganisations(ctx context.Context) ([]notify.Organisation, error)
	GetOrganisation(ctx context.Context, organisationID string) (*notify.Organisation, error)
	UpdateOrganisation(ctx context.Context, organisationID string, fields map[string]any) error
	GetLiveServiceAndOrganisationCounts(ctx context.Context) (notify.LiveCounts, error)
}

// Client layers read-through caching and write-time invalidation over the
// API. Methods absent here pass through the embedded interface untouched.
type Client struct {
	API
	store Store
}

// NewClient decorates api with store. A nil store turns the cache off while
// keeping the call surface identical.
func NewClient(api API, store Store) *Client {
	return &Client{API: api, store: store}
}

// fetch reads key from the store, falling back to load on a miss or any
// store failure, then memoises the result best-effort.
func fetch[T any](ctx context.Context, c *Client, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if c.store != nil {
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil {
			log.Printf("WARN: cache read %s: %v", key, err)
		} else if ok {
			var value T
			if err := json.Unmarshal(raw, &value); err == nil {
				return value, nil
			}
			log.Printf("WARN: cache entry %s is not valid JSON, refetching", key)
		}
	}
	value, err := load(ctx)
	if err != nil {
		return zero, err
	}
	c.put(ctx, key, value, ttl)
	return value, nil
}

func (c *Client) put(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("WARN: cache encode %s: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		log.Printf("WARN: cache write %s: %v", key, err)
	}
}

func (c *Client) invalidate(ctx context.Context, keys ...string) {
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		log.Printf("WARN: cache invalidate %v: %v", keys, err)
	}
}

func (c *Client) invalidatePattern(ctx context.Context, pattern string) {
	if c.store == nil {
		return
	}
	if err := c.store.DeletePattern(ctx, pattern); err != nil {
		log.Printf("WARN: cache invalidate pattern %s: %v", pattern, err)
	}
}

func (c *Client) GetUser(ctx context.Context, userID string) (*identity.User, error) {
	return fetch(ctx, c, userKey(userID), DefaultTTL, func(ctx context.Context) (*identity.User, error) {
		return c.API.GetUser(ctx, userID)
	})
}

func (c *Client) UpdateUser(ctx context.Context, userID string, fields map[string]any) (*identity.User, error) {
	user, err := c.API.UpdateUser(ctx, userID, fields)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, userKey(userID))
	return user, nil
}

func (c *Client) ActivateUser(ctx context.Context, userID string) (*identity.User, error) {
	user, err := c.API.ActivateUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, userKey(userID))
	return user, nil
}

func (c *Client) AcceptInvite(ctx context.Context, inviteID, userID string) error {
	if err := c.API.AcceptInvite(ctx, inviteID, userID); err != nil {
		return err
	}
	c.invalidate(ctx, userKey(userID))
	return nil
}

func (c *Client) AcceptOrgInvite(ctx context.Context, inviteID, userID string) error {
	if err := c.API.AcceptOrgInvite(ctx, inviteID, userID); err != nil {
		return err
	}
	c.invalidate(ctx, userKey(userID))
	return nil
}

func (c *Client) GetService(ctx context.Context, serviceID string) (*notify.Service, error) {
	return fetch(ctx, c, serviceKey(serviceID), DefaultTTL, func(ctx context.Context) (*notify.Service, error) {
		return c.API.GetService(ctx, serviceID)
	})
}

// CreateService drops the creator's cached user record, whose membership
// list now includes the new service.
func (c *Client) CreateService(ctx context.Context, input notify.CreateServiceInput) (string, error) {
	serviceID, err := c.API.CreateService(ctx, input)
	if err != nil {
		return "", err
	}
	c.invalidate(ctx, userKey(input.UserID))
	return serviceID, nil
}

func (c *Client) UpdateService(ctx context.Context, serviceID string, fields map[string]any) (*notify.Service, error) {
	service, err := c.API.UpdateService(ctx, serviceID, fields)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, serviceKey(serviceID))
	if _, ok := fields["go_live_state"]; ok {
		c.invalidate(ctx, keyOrganisations, keyDomains, keyLiveCounts)
	}
	return service, nil
}

func (c *Client) CreateOrUpdateFreeSMSFragmentLimit(ctx context.Context, serviceID string, limit int) error {
	if err := c.API.CreateOrUpdateFreeSMSFragmentLimit(ctx, serviceID, limit); err != nil {
		return err
	}
	c.invalidate(ctx, serviceKey(serviceID))
	return nil
}

func (c *Client) GetServiceDataRetention(ctx context.Context, serviceID string) ([]notify.DataRetention, error) {
	return fetch(ctx, c, serviceDataRetentionKey(serviceID), DefaultTTL, func(ctx context.Context) ([]notify.DataRetention, error) {
		return c.API.GetServiceDataRetention(ctx, serviceID)
	})
}

func (c *Client) SetServiceDataRetention(ctx context.Context, serviceID, notificationType string, days int) error {
	if err := c.API.SetServiceDataRetention(ctx, serviceID, notificationType, days); err != nil {
		return err
	}
	c.invalidate(ctx, serviceDataRetentionKey(serviceID))
	return nil
}

func (c *Client) GetServiceTemplates(ctx context.Context, serviceID string) ([]notify.Template, error) {
	return fetch(ctx, c, serviceTemplatesKey(serviceID), DefaultTTL, func(ctx context.Context) ([]notify.Template, error) {
		return c.API.GetServiceTemplates(ctx, serviceID)
	})
}

func (c *Client) GetServiceTemplate(ctx context.Context, serviceID, templateID string, version *int) (*notify.Template, error) {
	return fetch(ctx, c, templateVersionKey(templateID, version), DefaultTTL, func(ctx context.Context) (*notify.Template, error) {
		return c.API.GetServiceTemplate(ctx, serviceID, templateID, version)
	})
}

func (c *Client) GetServiceTemplateVersions(ctx context.Context, serviceID, templateID string) ([]notify.Template, error) {
	return fetch(ctx, c, templateVersionsKey(templateID), DefaultTTL, func(ctx context.Context) ([]notify.Template, error) {
		return c.API.GetServiceTemplateVersions(ctx, serviceID, templateID)
	})
}

func (c *Client) CreateServiceTemplate(ctx context.Context, serviceID string, input notify.CreateTemplateInput) (*notify.Template, error) {
	template, err := c.API.CreateServiceTemplate(ctx, serviceID, input)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, serviceTemplatesKey(serviceID))
	return template, nil
}

func (c *Client) UpdateServiceTemplate(ctx context.Context, serviceID, templateID string, fields map[string]any) (*notify.Template, error) {
	template, err := c.API.UpdateServiceTemplate(ctx, serviceID, templateID, fields)
	if err != nil {
		return nil, err
	}
	c.invalidateTemplate(ctx, serviceID, templateID)
	return template, nil
}

func (c *Client) DeleteServiceTemplate(ctx context.Context, serviceID, templateID string) error {
	if err := c.API.DeleteServiceTemplate(ctx, serviceID, templateID); err != nil {
		return err
	}
	c.invalidateTemplate(ctx, serviceID, templateID)
	return nil
}

// invalidateTemplate sweeps every key a template read could have produced.
// Numbered version keys go through a pattern delete since the set of
// versions is unbounded.
func (c *Client) invalidateTemplate(ctx context.Context, serviceID, templateID string) {
	c.invalidate(ctx,
		serviceTemplatesKey(serviceID),
		templateVersionKey(templateID, nil),
		templateVersionsKey(templateID),
	)
	c.invalidatePattern(ctx, templateVersionPattern(templateID))
}

func (c *Client) GetOrganisations(ctx context.Context) ([]notify.Organisation, error) {
	return fetch(ctx, c, keyOrganisations, DefaultTTL, func(ctx context.Context) ([]notify.Organisation, error) {
		return c.API.GetOrganisations(ctx)
	})
}

func (c *Client) UpdateOrganisation(ctx context.Context, organisationID string, fields map[string]any) error {
	if err := c.API.UpdateOrganisation(ctx, organisationID, fields); err != nil {
		return err
	}
	c.invalidate(ctx, keyOrganisations, keyDomains, keyLiveCounts)
	return nil
}

func (c *Client) GetLiveServiceAndOrganisationCounts(ctx context.Context) (notify.LiveCounts, error) {
	return fetch(ctx, c, keyLiveCounts, DefaultTTL, func(ctx context.Context) (notify.LiveCounts, error) {
		return c.API.GetLiveServiceAndOrganisationCounts(ctx)
	})
}

// Domains maps known email domains to the organisation that owns them,
// derived from the organisation list.
func (c *Client) Domains(ctx context.Context) (map[string]string, error) {
	return fetch(ctx, c, keyDomains, DefaultTTL, func(ctx context.Context) (map[string]string, error) {
		organisations, err := c.GetOrganisations(ctx)
		if err != nil {
			return nil, err
		}
		domains := make(map[string]string)
		for _, organisation := range organisations {
			for _, domain := range organisation.Domains {
				domains[domain] = organisation.ID
			}
		}
		return domains, nil
	})
}
