// Package session holds the signed in identity of the client.
//
// A Session is created at startup, passed to the components needing the identity,
// updated on sign-in and torn down on sign-out.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RefreshMargin is how long before its expiration an ID token is refreshed.
const RefreshMargin = time.Minute

// Session events.
const (
	SignedIn Event = iota
	SignedOut
)

type (
	// An Event is a change of the session.
	Event int

	// A Listener is notified of the session changes.
	Listener func(event Event, profile liblf.Profile)

	// A Session is the signed in identity.
	// It implements liblf.TokenSource and is safe for concurrent use.
	Session struct {
		mu        sync.RWMutex
		refreshMu sync.Mutex
		token     liblf.Token
		profile   liblf.Profile
		signedIn  bool
		listeners map[int]Listener
		nextID    int

		identity liblf.Identity
		client   liblf.Client
		log      logrus.FieldLogger
		now      func() time.Time
	}
)

// String implements fmt.Stringer.
func (e Event) String() string {
	switch e {
	case SignedIn:
		return "signed-in"
	case SignedOut:
		return "signed-out"
	default:
		return "unknown"
	}
}

// New returns an anonymous Session.
// The session becomes the token source of the given client.
func New(identity liblf.Identity, client liblf.Client, log logrus.FieldLogger) *Session {
	s := &Session{
		listeners: map[int]Listener{},
		identity:  identity,
		client:    client,
		log:       log,
		now:       time.Now,
	}
	client.SetTokenSource(s)
	return s
}

// Start restores a previously persisted token.
// An undefined token leaves the session anonymous.
func (s *Session) Start(ctx context.Context, token liblf.Token) error {
	if !token.Defined() {
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	return s.login(ctx)
}

// SignIn authenticates with email and password.
func (s *Session) SignIn(ctx context.Context, email, password string) (liblf.Profile, error) {
	token, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return liblf.Profile{}, errors.Wrap(err, "could not sign in")
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err = s.login(ctx); err != nil {
		return liblf.Profile{}, err
	}
	return s.Profile(), nil
}

// Register creates an account and signs in.
func (s *Session) Register(ctx context.Context, name, email, password, photoURL string) (liblf.Profile, error) {
	token, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return liblf.Profile{}, errors.Wrap(err, "could not register")
	}

	token, err = s.identity.UpdateProfile(ctx, token.IDToken, name, photoURL)
	if err != nil {
		return liblf.Profile{}, errors.Wrap(err, "could not update profile")
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err = s.login(ctx); err != nil {
		return liblf.Profile{}, err
	}
	return s.Profile(), nil
}

// SignOut clears the backend session and forgets the identity.
// The identity is forgotten even if the backend could not be reached.
func (s *Session) SignOut(ctx context.Context) error {
	err := s.client.Logout(ctx)

	s.mu.Lock()
	profile := s.profile
	wasSignedIn := s.signedIn
	s.token = liblf.Token{}
	s.profile = liblf.Profile{}
	s.signedIn = false
	s.mu.Unlock()

	if wasSignedIn {
		s.notify(SignedOut, profile)
	}
	return errors.Wrap(err, "could not sign out")
}

// IDToken implements liblf.TokenSource.
// The ID token is refreshed when it is about to expire.
func (s *Session) IDToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if !token.Defined() {
		return "", liblf.ErrNotSignedIn
	}
	if !token.ExpiredAt(s.now().Add(RefreshMargin)) {
		return token.IDToken, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.RLock()
	token = s.token
	s.mu.RUnlock()

	if !token.Defined() {
		return "", liblf.ErrNotSignedIn
	}
	if !token.ExpiredAt(s.now().Add(RefreshMargin)) {
		return token.IDToken, nil // Refreshed concurrently
	}

	s.log.Debug("refreshing ID token")
	refreshed, err := s.identity.Refresh(ctx, token.RefreshToken)
	if err != nil {
		return "", errors.Wrap(err, "could not refresh ID token")
	}

	s.mu.Lock()
	s.token = refreshed
	s.mu.Unlock()
	return refreshed.IDToken, nil
}

// Token returns the identity provider tokens, used to persist the session.
func (s *Session) Token() liblf.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Profile returns the signed in user.
func (s *Session) Profile() liblf.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// User returns the signed in user and whether there is one.
func (s *Session) User() (liblf.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.signedIn
}

// SignedIn returns true if a user is signed in.
func (s *Session) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signedIn
}

// Email returns the email of the signed in user, empty for anonymous sessions.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Email
}

// Subscribe registers a listener and returns the function unregistering it.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) login(ctx context.Context) error {
	idToken, err := s.IDToken(ctx)
	if err != nil {
		s.forget()
		return err
	}

	profile, err := s.client.Login(ctx, idToken)
	if err != nil {
		s.forget()
		return err
	}

	// Fill what the backend does not echo from the ID token itself.
	if claims, err := liblf.ParseClaims(idToken); err == nil {
		if profile.UID == "" {
			profile.UID = claims.UserID
		}
		if profile.Email == "" {
			profile.Email = claims.Email
		}
		if profile.Name == "" {
			profile.Name = claims.Name
		}
		if profile.PhotoURL == "" {
			profile.PhotoURL = claims.Picture
		}
	}

	s.mu.Lock()
	s.profile = profile
	s.signedIn = true
	s.mu.Unlock()

	s.log.WithField("email", profile.Email).Info("signed in")
	s.notify(SignedIn, profile)
	return nil
}

func (s *Session) forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = liblf.Token{}
	s.profile = liblf.Profile{}
	s.signedIn = false
}

func (s *Session) notify(event Event, profile liblf.Profile) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(event, profile)
	}
}
