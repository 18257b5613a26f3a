package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apetrenko/tgfactor/internal/logger"
	"github.com/apetrenko/tgfactor/internal/model"
)

const (
	// OTPTTL bounds how long an issued one-time code stays valid.
	OTPTTL = 120 * time.Second
	// LinkTokenTTL bounds how long an issued link token stays valid.
	LinkTokenTTL = 600 * time.Second
)

// Auth sequences the user-facing flows. It owns no cryptographic
// logic: hashing, indexing and consumption live in the lifecycle
// services it composes.
type Auth struct {
	userStore    model.UserStore
	bindingStore model.BindingStore
	hasher       Hasher
	challenges   *ChallengeService
	links        *LinkService
	recovery     *RecoveryService
	bindings     *BindingService
	tokenManager model.TokenManager
	notifier     model.Notifier
	logger       *logger.Logger
	botUsername  string
	debugOTP     bool
}

func NewAuth(
	userStore model.UserStore,
	bindingStore model.BindingStore,
	hasher Hasher,
	challenges *ChallengeService,
	links *LinkService,
	recovery *RecoveryService,
	bindings *BindingService,
	tokenManager model.TokenManager,
	notifier model.Notifier,
	logger *logger.Logger,
	botUsername string,
	debugOTP bool,
) *Auth {
	return &Auth{
		userStore:    userStore,
		bindingStore: bindingStore,
		hasher:       hasher,
		challenges:   challenges,
		links:        links,
		recovery:     recovery,
		bindings:     bindings,
		tokenManager: tokenManager,
		notifier:     notifier,
		logger:       logger,
		botUsername:  botUsername,
		debugOTP:     debugOTP,
	}
}

// Register creates a user and an empty binding placeholder.
func (a *Auth) Register(ctx context.Context, email, username, password string) (model.User, error) {
	a.logger.Debug("Auth service: registering user",
		"email", email,
		"username", username)

	passwordHash, err := a.hasher.Hash(password)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := a.userStore.Create(ctx, email, username, passwordHash)
	if err != nil {
		if errors.Is(err, model.ErrUserExists) {
			a.logger.Info("Auth service: user already exists",
				"email", email,
				"username", username)
			return model.User{}, model.ErrUserExists
		}
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	if err := a.bindingStore.EnsurePlaceholder(ctx, user.ID); err != nil {
		a.logger.Error("Auth service: failed to create binding placeholder",
			"user_id", user.ID,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create binding placeholder: %w", err)
	}

	a.logger.Info("Auth service: user registered",
		"user_id", user.ID,
		"username", username)

	return user, nil
}

// ChallengeResult is the caller-facing outcome of Login and
// InitiateOTP. DebugCode carries the plaintext only when the debug
// side channel is enabled; it is never logged.
type ChallengeResult struct {
	ChallengeID uuid.UUID
	ExpiresAt   time.Time
	Delivered   bool
	DebugCode   string
}

// Login validates the password and issues a login OTP challenge,
// delivering the code over telegram when a verified binding exists.
// Unknown user, inactive user and wrong password are indistinguishable
// to the caller.
func (a *Auth) Login(ctx context.Context, identifier, password string) (ChallengeResult, error) {
	return a.InitiateOTP(ctx, identifier, password, model.ContextLogin)
}

// InitiateOTP is Login with a caller-chosen challenge context.
func (a *Auth) InitiateOTP(ctx context.Context, identifier, password string, challengeContext model.ChallengeContext) (ChallengeResult, error) {
	a.logger.Debug("Auth service: initiating otp challenge",
		"identifier", identifier,
		"context", string(challengeContext))

	if !challengeContext.Valid() {
		return ChallengeResult{}, fmt.Errorf("unknown challenge context %q", challengeContext)
	}

	user, err := a.userStore.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return ChallengeResult{}, model.ErrInvalidCredentials
		}
		return ChallengeResult{}, fmt.Errorf("failed to get user by identifier: %w", err)
	}
	if !user.IsActive || !a.hasher.Verify(password, user.PasswordHash) {
		return ChallengeResult{}, model.ErrInvalidCredentials
	}

	issued, err := a.challenges.Issue(ctx, user.ID, OTPTTL, challengeContext)
	if err != nil {
		return ChallengeResult{}, fmt.Errorf("failed to issue otp challenge: %w", err)
	}

	result := ChallengeResult{
		ChallengeID: issued.ID,
		ExpiresAt:   issued.ExpiresAt,
		Delivered:   a.deliverOTP(ctx, user.ID, issued.Plaintext, challengeContext),
	}
	if a.debugOTP {
		result.DebugCode = issued.Plaintext
	}

	return result, nil
}

// deliverOTP sends the code to the user's verified chat. Delivery is
// best effort: failures are logged and the flow continues.
func (a *Auth) deliverOTP(ctx context.Context, userID int64, code string, challengeContext model.ChallengeContext) bool {
	binding, err := a.bindingStore.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			a.logger.Error("Auth service: failed to get binding for delivery",
				"user_id", userID,
				"error", err.Error())
		}
		return false
	}
	if !binding.IsVerified || binding.ChatID == nil {
		return false
	}

	text := fmt.Sprintf("Your OTP: %s", code)
	if challengeContext != model.ContextLogin {
		text = fmt.Sprintf("Your OTP for %s: %s", challengeContext, code)
	}

	if err := a.notifier.Send(ctx, *binding.ChatID, text); err != nil {
		a.logger.Error("Auth service: failed to deliver otp over telegram",
			"user_id", userID,
			"error", err.Error())
		return false
	}
	return true
}

// VerifyOTP consumes a login or sensitive challenge and issues a
// session credential for the challenge owner. All rejection reasons
// surface as the single invalid-or-expired outcome.
func (a *Auth) VerifyOTP(ctx context.Context, challengeID uuid.UUID, code string) (string, model.User, error) {
	challenge, err := a.challenges.VerifyAndConsume(ctx, challengeID, code)
	if err != nil {
		return "", model.User{}, normalizeSecretErr(err)
	}

	user, err := a.userStore.GetByID(ctx, challenge.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.User{}, model.ErrInvalidChallenge
		}
		return "", model.User{}, fmt.Errorf("failed to get challenge owner: %w", err)
	}

	sessionToken, err := a.tokenManager.GenerateSessionToken(user.ID)
	if err != nil {
		return "", model.User{}, fmt.Errorf("failed to issue session token: %w", err)
	}

	a.logger.Info("Auth service: otp verified, session issued",
		"user_id", user.ID,
		"challenge_id", challengeID)

	return sessionToken, user, nil
}

// LinkStart is the caller-facing outcome of InitiateLink. LinkURL is a
// bot deep link, present only when the bot username is configured.
type LinkStart struct {
	Token     string
	ExpiresAt time.Time
	LinkURL   string
}

// InitiateLink issues a link token for out-of-band delivery.
func (a *Auth) InitiateLink(ctx context.Context, userID int64) (LinkStart, error) {
	issued, err := a.links.Issue(ctx, userID, LinkTokenTTL)
	if err != nil {
		return LinkStart{}, fmt.Errorf("failed to issue link token: %w", err)
	}

	start := LinkStart{Token: issued.Plaintext, ExpiresAt: issued.ExpiresAt}
	if a.botUsername != "" {
		start.LinkURL = fmt.Sprintf("https://t.me/%s?start=%s", a.botUsername, issued.Plaintext)
	}

	return start, nil
}

// LinkResult is the caller-facing outcome of CompleteLink.
// RecoveryCodes is non-empty only on the user's first successful link.
type LinkResult struct {
	UserID        int64
	RecoveryCodes []string
}

// CompleteLink consumes a presented link token and binds the chat to
// the token's owner. On the first link it also generates the user's
// recovery code batch.
func (a *Auth) CompleteLink(ctx context.Context, token, chatID, chatUsername string) (LinkResult, error) {
	a.logger.Debug("Auth service: completing telegram link",
		"chat_id", chatID)

	userID, err := a.links.Consume(ctx, token)
	if err != nil {
		return LinkResult{}, normalizeSecretErr(err)
	}

	if err := a.bindings.Bind(ctx, userID, chatID, chatUsername); err != nil {
		return LinkResult{}, err
	}

	result := LinkResult{UserID: userID}

	hasCodes, err := a.recovery.HasCodes(ctx, userID)
	if err != nil {
		return LinkResult{}, err
	}
	if !hasCodes {
		codes, err := a.recovery.Generate(ctx, userID, RecoveryBatchSize)
		if err != nil {
			return LinkResult{}, err
		}
		result.RecoveryCodes = codes
	}

	a.logger.Info("Auth service: telegram linked",
		"user_id", userID,
		"chat_id", chatID)

	return result, nil
}

// ConfirmTelegramChange consumes a telegram_change challenge and
// revokes the owner's current binding so a new link can be initiated.
func (a *Auth) ConfirmTelegramChange(ctx context.Context, challengeID uuid.UUID, code string) (int64, error) {
	challenge, err := a.challenges.VerifyAndConsume(ctx, challengeID, code)
	if err != nil {
		return 0, normalizeSecretErr(err)
	}
	if challenge.Context != model.ContextTelegramChange {
		return 0, model.ErrInvalidChallenge
	}

	if err := a.bindings.Revoke(ctx, challenge.UserID); err != nil {
		return 0, err
	}

	a.logger.Info("Auth service: telegram change confirmed",
		"user_id", challenge.UserID)

	return challenge.UserID, nil
}

// Recover consumes a recovery code and revokes the binding, forcing a
// fresh link. The code is the sole proof of possession in this flow.
func (a *Auth) Recover(ctx context.Context, identifier, recoveryCode string) (int64, error) {
	user, err := a.userStore.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return 0, model.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get user by identifier: %w", err)
	}

	if err := a.recovery.Consume(ctx, user.ID, recoveryCode); err != nil {
		return 0, normalizeSecretErr(err)
	}

	if err := a.bindings.Revoke(ctx, user.ID); err != nil {
		return 0, err
	}

	a.logger.Info("Auth service: account recovered, binding revoked",
		"user_id", user.ID)

	return user.ID, nil
}

// ResolveChat returns the user owning a verified binding for the chat.
func (a *Auth) ResolveChat(ctx context.Context, chatID string) (model.User, error) {
	user, err := a.bindingStore.GetUserByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to resolve chat owner: %w", err)
	}
	return user, nil
}
