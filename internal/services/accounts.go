package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"github.com/dbh-bot/dbh/internal/auth"
	"github.com/dbh-bot/dbh/internal/cache"
	"github.com/dbh-bot/dbh/internal/store"
	"github.com/dbh-bot/dbh/types"
)

const KindAccount = "account"

// AccountStore defines persistence operations for web accounts.
type AccountStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (types.WebAccount, error)
	Exists(ctx context.Context, login, email string) (bool, error)
	Save(ctx context.Context, account *types.WebAccount) error
}

// TokenCodec signs and verifies session tokens.
type TokenCodec interface {
	Sign(claims auth.Claims) (string, error)
	Verify(token string) (auth.Claims, error)
}

// Credentials identify an account by login or email plus password.
type Credentials struct {
	Identifier string
	Password   string
}

// AccountQuery selects an account by token or by credentials. Token wins
// when both are set.
type AccountQuery struct {
	Token       string
	Credentials *Credentials
}

// Registration is the input to RegisterAccount. Email is optional.
type Registration struct {
	Login    string
	Email    string
	Password string
}

// AccountService issues and verifies session tokens and resolves web
// accounts. Verified tokens are cached under the raw token string until the
// next flush; cached claims are returned without re-checking expiry.
type AccountService struct {
	store    AccountStore
	codec    TokenCodec
	accounts *entityCache[types.WebAccount]
	// credentials indexes accounts already authenticated by password.
	credentials *cache.Keyed[*types.WebAccount]
	sessions    *cache.Keyed[auth.Claims]
	registerMu  sync.Mutex
}

func NewAccountService(store AccountStore, codec TokenCodec, opts Options) *AccountService {
	return &AccountService{
		store:       store,
		codec:       codec,
		accounts:    newEntityCache(KindAccount, store.Save, opts),
		credentials: cache.NewKeyed[*types.WebAccount](),
		sessions:    cache.NewKeyed[auth.Claims](),
	}
}

// ClaimsFor builds the token claims identifying account.
func ClaimsFor(account *types.WebAccount) auth.Claims {
	return auth.Claims{AccountID: account.ID, Login: account.Login, Email: account.Email}
}

// Issue signs claims and caches them under the produced token.
func (s *AccountService) Issue(claims auth.Claims) (string, error) {
	token, err := s.codec.Sign(claims)
	if err != nil {
		return "", err
	}
	s.sessions.Put(token, claims)
	return token, nil
}

// Verify returns the claims for token. A cached token is trusted as is.
func (s *AccountService) Verify(token string) (auth.Claims, error) {
	if claims, ok := s.sessions.Get(token); ok {
		return claims, nil
	}
	claims, err := s.codec.Verify(token)
	if err != nil {
		var invalid *auth.InvalidError
		switch {
		case errors.Is(err, auth.ErrExpired):
			return auth.Claims{}, ErrTokenExpired
		case errors.As(err, &invalid):
			return auth.Claims{}, tokenInvalid(invalid.Reason)
		default:
			return auth.Claims{}, tokenInvalid(err.Error())
		}
	}
	s.sessions.Put(token, claims)
	return claims, nil
}

// ResolveAccount finds the account named by q.
func (s *AccountService) ResolveAccount(ctx context.Context, q AccountQuery) (*types.WebAccount, error) {
	if q.Token != "" {
		claims, err := s.Verify(q.Token)
		if err != nil {
			return nil, err
		}
		account, err := s.byIdentifier(ctx, claims.Login)
		if err != nil {
			return nil, err
		}
		id := s.accounts.snapshot(account).ID
		if claims.AccountID != 0 && id != 0 && claims.AccountID != id {
			return nil, ErrAccountNotFound
		}
		return account, nil
	}
	if q.Credentials == nil {
		return nil, ErrMissingCredential
	}
	return s.authenticate(ctx, *q.Credentials)
}

func (s *AccountService) authenticate(ctx context.Context, creds Credentials) (*types.WebAccount, error) {
	identifier := strings.TrimSpace(creds.Identifier)
	if identifier == "" || creds.Password == "" {
		return nil, ErrMissingCredential
	}
	key := credentialKey(identifier, creds.Password)
	if account, ok := s.credentials.Get(key); ok {
		return account, nil
	}
	account, err := s.byIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(account.PasswordHash, creds.Password) {
		return nil, ErrAccountNotFound
	}
	s.credentials.Put(key, account)
	return account, nil
}

// byIdentifier finds an account by login or email, cache first. Accounts
// are cached by login whichever identifier found them.
func (s *AccountService) byIdentifier(ctx context.Context, identifier string) (*types.WebAccount, error) {
	if account := s.cachedByIdentifier(identifier); account != nil {
		return account, nil
	}
	account, err := s.accounts.flight.Do(ctx, identifier, func(ctx context.Context) (*types.WebAccount, error) {
		if account := s.cachedByIdentifier(identifier); account != nil {
			return account, nil
		}
		record, err := s.store.FindByIdentifier(ctx, identifier)
		if err != nil {
			return nil, err
		}
		return s.accounts.items.PutIfAbsent(record.Login, &record), nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (s *AccountService) cachedByIdentifier(identifier string) *types.WebAccount {
	if account, ok := s.accounts.items.Get(identifier); ok {
		return account
	}
	var found *types.WebAccount
	s.accounts.items.ForEach(func(_ string, account *types.WebAccount) bool {
		if account.Email != "" && account.Email == identifier {
			found = account
			return false
		}
		return true
	})
	return found
}

// RegisterAccount creates an account after checking that neither login nor
// email is taken. The account is cached by login and by credentials and is
// persisted at the next flush unless write-through is enabled.
func (s *AccountService) RegisterAccount(ctx context.Context, reg Registration) (*types.WebAccount, error) {
	reg.Login = strings.TrimSpace(reg.Login)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Login == "" || reg.Password == "" {
		return nil, ErrMissingCredential
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	if s.takenInCache(reg.Login, reg.Email) {
		return nil, ErrCredentialTaken
	}
	exists, err := s.store.Exists(ctx, reg.Login, reg.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCredentialTaken
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.create(ctx, reg.Login, &types.WebAccount{
		Login:        reg.Login,
		Email:        reg.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrCredentialTaken
		}
		return nil, err
	}
	s.credentials.Put(credentialKey(reg.Login, reg.Password), account)
	if reg.Email != "" {
		s.credentials.Put(credentialKey(reg.Email, reg.Password), account)
	}
	return account, nil
}

func (s *AccountService) takenInCache(login, email string) bool {
	taken := false
	s.accounts.items.ForEach(func(_ string, account *types.WebAccount) bool {
		if account.Login == login || (email != "" && account.Email == email) {
			taken = true
			return false
		}
		return true
	})
	return taken
}

// credentialKey derives the cache key for an identifier/password pair. The
// password is digested so the raw value is never held as a map key.
func credentialKey(identifier, password string) string {
	sum := sha256.Sum256([]byte(password))
	return identifier + ":" + hex.EncodeToString(sum[:])
}

func (s *AccountService) Kind() string {
	return KindAccount
}

func (s *AccountService) Cached() int {
	return s.accounts.items.Len()
}

// Flush persists cached accounts and drops the credential index.
func (s *AccountService) Flush(ctx context.Context) (KindReport, error) {
	report, err := s.accounts.flush(ctx)
	s.credentials.Clear()
	return report, err
}

// Snapshot copies account. A flush assigns the ID of a newly registered
// account in place, so readers outside this package take a copy.
func (s *AccountService) Snapshot(account *types.WebAccount) types.WebAccount {
	return s.accounts.snapshot(account)
}

// ClearSessions drops every cached token and returns how many there were.
func (s *AccountService) ClearSessions() int {
	n := s.sessions.Len()
	s.sessions.Clear()
	return n
}
