package contact

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/bike-resale-api/internal/domain"
)

type Service interface {
	// ContactOwner emails the owner of bikeID on behalf of the caller.
	ContactOwner(ctx context.Context, callerID, bikeID, message string) error
}

type bikeStore interface {
	Get(ctx context.Context, bikeID string) (*domain.Bike, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type mailer interface {
	Send(ctx context.Context, e domain.Email) error
}

type ServiceDeps struct {
	BikeRepo bikeStore
	UserRepo userStore
	Mailer   mailer
}

type service struct {
	bikes  bikeStore
	users  userStore
	mailer mailer
	policy *bluemonday.Policy
}

func NewService(deps ServiceDeps) Service {
	return &service{
		bikes:  deps.BikeRepo,
		users:  deps.UserRepo,
		mailer: deps.Mailer,
		policy: bluemonday.StrictPolicy(),
	}
}

var interestTmpl = template.Must(template.New("interest").Parse(`<h3>Someone is interested in your bike listing.</h3>
<p><strong>Bike:</strong> {{.BikeName}}</p>
{{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.BikeName}}" width="300" />{{end}}
<p><strong>Message:</strong> {{.Message}}</p>
<hr />
<h4>Interested User Details</h4>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Address:</strong> {{.Address}}</p>
`))

type interestView struct {
	BikeName string
	ImageURL string
	Message  template.HTML // already sanitized
	Name     string
	Email    string
	Address  string
}

func (s *service) ContactOwner(ctx context.Context, callerID, bikeID, message string) error {
	if bikeID == "" {
		return fmt.Errorf("bikeId is required: %w", domain.ErrValidation)
	}
	clean := strings.TrimSpace(s.policy.Sanitize(message))
	if clean == "" {
		return fmt.Errorf("message is required: %w", domain.ErrValidation)
	}

	b, err := s.bikes.Get(ctx, bikeID)
	if err != nil {
		return err
	}
	if b.ListedBy == callerID {
		return fmt.Errorf("cannot contact yourself about your own listing: %w", domain.ErrValidation)
	}
	owner, err := s.users.Get(ctx, b.ListedBy)
	if err != nil {
		return fmt.Errorf("listing owner: %w", err)
	}
	buyer, err := s.users.Get(ctx, callerID)
	if err != nil {
		return err
	}

	view := interestView{
		BikeName: b.BikeName,
		Message:  template.HTML(clean),
		Name:     buyer.FullName,
		Email:    buyer.Email,
		Address:  buyer.Address,
	}
	if len(b.BikeImages) > 0 {
		view.ImageURL = b.BikeImages[0]
	}
	var body bytes.Buffer
	if err := interestTmpl.Execute(&body, view); err != nil {
		return fmt.Errorf("render contact email: %w", err)
	}

	text := fmt.Sprintf("Someone is interested in your bike listing.\n\nBike: %s\nMessage: %s\n\nName: %s\nEmail: %s\nAddress: %s\n",
		b.BikeName, html.UnescapeString(clean), buyer.FullName, buyer.Email, buyer.Address)

	if err := s.mailer.Send(ctx, domain.Email{
		To:      owner.Email,
		Subject: "Interest in your bike: " + b.BikeName,
		Text:    text,
		HTML:    body.String(),
	}); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}
	return nil
}
