package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// Go-live checklist state lives in the cache rather than the API: acceptance
// and use-case markers are advisory, expire on their own, and losing them
// only re-prompts the user.

func (c *Client) SetTermsAccepted(ctx context.Context, serviceID string) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, tosAcceptedKey(serviceID), []byte("true"), tosAcceptedTTL); err != nil {
		log.Printf("WARN: cache write %s: %v", tosAcceptedKey(serviceID), err)
	}
}

func (c *Client) TermsAccepted(ctx context.Context, serviceID string) bool {
	if c.store == nil {
		return false
	}
	_, ok, err := c.store.Get(ctx, tosAcceptedKey(serviceID))
	if err != nil {
		log.Printf("WARN: cache read %s: %v", tosAcceptedKey(serviceID), err)
		return false
	}
	return ok
}

// StoreUseCaseData saves the in-progress use-case form and clears any prior
// submission marker, so editing the form reopens the checklist item.
func (c *Client) StoreUseCaseData(ctx context.Context, serviceID string, data map[string]any) error {
	if c.store == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode use-case data: %w", err)
	}
	if err := c.store.Set(ctx, useCaseDataKey(serviceID), raw, useCaseDataTTL); err != nil {
		return err
	}
	c.invalidate(ctx, useCaseSubmittedKey(serviceID))
	return nil
}

// UseCaseData returns the saved form data, or ok=false when nothing is
// stored or the store is unreachable.
func (c *Client) UseCaseData(ctx context.Context, serviceID string) (map[string]any, bool) {
	if c.store == nil {
		return nil, false
	}
	raw, ok, err := c.store.Get(ctx, useCaseDataKey(serviceID))
	if err != nil {
		log.Printf("WARN: cache read %s: %v", useCaseDataKey(serviceID), err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("WARN: cache entry %s is not valid JSON", useCaseDataKey(serviceID))
		return nil, false
	}
	return data, true
}

func (c *Client) SetUseCaseSubmitted(ctx context.Context, serviceID string) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, useCaseSubmittedKey(serviceID), []byte("true"), useCaseSubmittedTTL); err != nil {
		log.Printf("WARN: cache write %s: %v", useCaseSubmittedKey(serviceID), err)
	}
}

func (c *Client) HasSubmittedUseCase(ctx context.Context, serviceID string) bool {
	if c.store == nil {
		return false
	}
	_, ok, err := c.store.Get(ctx, useCaseSubmittedKey(serviceID))
	if err != nil {
		log.Printf("WARN: cache read %s: %v", useCaseSubmittedKey(serviceID), err)
		return false
	}
	return ok
}
