package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"flux_irrigation/internal/connkey"
	"flux_irrigation/internal/models"
	"flux_irrigation/internal/repository"

	"github.com/google/uuid"
)

// ErrDuplicateCustomer is matched by *DuplicateCustomerError.
var ErrDuplicateCustomer = errors.New("connection key already registered")

// DuplicateCustomerError names the customer that already owns a (url, key) pair.
type DuplicateCustomerError struct {
	ExistingID   string
	ExistingName string
}

func (e *DuplicateCustomerError) Error() string {
	return fmt.Sprintf("this connection key is already registered (customer: %s)", e.ExistingName)
}

func (e *DuplicateCustomerError) Is(target error) bool { return target == ErrDuplicateCustomer }

type CustomerService struct {
	store repository.Store[models.CustomerRegistry]
	now   func() time.Time
}

func NewCustomerService(store repository.Store[models.CustomerRegistry]) *CustomerService {
	return &CustomerService{store: store, now: time.Now}
}

// Add decodes token and registers a new customer. Name falls back to the
// key's label, then to "Customer N".
func (s *CustomerService) Add(token, name, notes string) (models.Customer, error) {
	key, err := connkey.Decode(token)
	if err != nil {
		return models.Customer{}, err
	}

	var (
		added  models.Customer
		dupErr error
	)
	s.store.Update(func(reg *models.CustomerRegistry) bool {
		for _, c := range reg.Customers {
			if c.URL == key.URL && c.APIKey == key.Key {
				dupErr = &DuplicateCustomerError{ExistingID: c.ID, ExistingName: c.Name}
				return false
			}
		}

		display := strings.TrimSpace(name)
		if display == "" {
			display = key.Label
		}
		if display == "" {
			display = fmt.Sprintf("Customer %d", len(reg.Customers)+1)
		}

		added = models.Customer{
			ID:                   uuid.NewString(),
			Name:                 display,
			ConnectionKeyEncoded: strings.TrimSpace(token),
			URL:                  key.URL,
			APIKey:               key.Key,
			AddedAt:              s.now().UTC(),
			Notes:                notes,
			Address:              key.Address,
			City:                 key.City,
			State:                key.State,
			Zip:                  key.Zip,
			Phone:                key.Phone,
			FirstName:            key.FirstName,
			LastName:             key.LastName,
			ZoneCount:            key.ZoneCount,
			HAToken:              key.HAToken,
			ConnectionMode:       key.Mode,
			KnownIssueIDs:        []string{},
		}
		reg.Customers = append(reg.Customers, added)
		return true
	})
	if dupErr != nil {
		return models.Customer{}, dupErr
	}
	return added, nil
}

func (s *CustomerService) Remove(id string) bool {
	removed := false
	s.store.Update(func(reg *models.CustomerRegistry) bool {
		for i, c := range reg.Customers {
			if c.ID == id {
				reg.Customers = append(reg.Customers[:i], reg.Customers[i+1:]...)
				removed = true
				return true
			}
		}
		return false
	})
	return removed
}

func (s *CustomerService) Get(id string) *models.Customer {
	reg := s.store.Load()
	for i := range reg.Customers {
		if reg.Customers[i].ID == id {
			c := reg.Customers[i]
			return &c
		}
	}
	return nil
}

func (s *CustomerService) List() []models.Customer {
	return s.store.Load().Customers
}

// Update renames and/or edits notes; nil leaves a field alone.
func (s *CustomerService) Update(id string, name, notes *string) *models.Customer {
	return s.mutate(id, func(c *models.Customer) {
		if name != nil {
			if n := strings.TrimSpace(*name); n != "" {
				c.Name = n
			}
		}
		if notes != nil {
			c.Notes = *notes
		}
	})
}

// contactFields are copied from a live system status onto the customer row.
var contactFields = []struct {
	key string
	set func(c *models.Customer, v string)
}{
	{"phone", func(c *models.Customer, v string) { c.Phone = v }},
	{"first_name", func(c *models.Customer, v string) { c.FirstName = v }},
	{"last_name", func(c *models.Customer, v string) { c.LastName = v }},
	{"address", func(c *models.Customer, v string) { c.Address = v }},
	{"city", func(c *models.Customer, v string) { c.City = v }},
	{"state", func(c *models.Customer, v string) { c.State = v }},
	{"zip", func(c *models.Customer, v string) { c.Zip = v }},
}

// UpdateStatus caches res. last_seen_online only moves forward on a fully
// successful check, and non-empty contact details in the live status win
// over the ones from the original key.
func (s *CustomerService) UpdateStatus(id string, res models.HealthResult) *models.Customer {
	return s.mutate(id, func(c *models.Customer) {
		cached := res
		c.LastStatus = &cached
		if !res.Online() {
			return
		}
		now := s.now().UTC()
		c.LastSeenOnline = &now

		status, ok := res.SystemStatus.(map[string]any)
		if !ok {
			return
		}
		for _, f := range contactFields {
			if v, ok := status[f.key].(string); ok && v != "" {
				f.set(c, v)
			}
		}
	})
}

// SetKnownIssues stores the issue ids seen on the latest poll and marks the
// customer as baselined.
func (s *CustomerService) SetKnownIssues(id string, ids []string) bool {
	return s.mutate(id, func(c *models.Customer) {
		c.KnownIssueIDs = append([]string{}, ids...)
		c.IssuesBaselined = true
	}) != nil
}

func (s *CustomerService) mutate(id string, fn func(c *models.Customer)) *models.Customer {
	var out *models.Customer
	s.store.Update(func(reg *models.CustomerRegistry) bool {
		for i := range reg.Customers {
			if reg.Customers[i].ID == id {
				fn(&reg.Customers[i])
				c := reg.Customers[i]
				out = &c
				return true
			}
		}
		return false
	})
	return out
}
