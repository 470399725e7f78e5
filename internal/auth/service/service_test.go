package service_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cryptox.SetPepper("service-test-pepper")
	os.Exit(m.Run())
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendCode(ctx context.Context, to domain.Email, code domain.ChallengeCode) error {
	return m.Called(ctx, to, code).Error(0)
}

// expectCode records the code sent to email and returns a func yielding it.
func (m *mockNotifier) expectCode(email string, err error) func() domain.ChallengeCode {
	var (
		mu   sync.Mutex
		last domain.ChallengeCode
	)
	m.On("SendCode", mock.Anything, domain.Email(email), mock.Anything).
		Run(func(args mock.Arguments) {
			mu.Lock()
			last = args.Get(2).(domain.ChallengeCode)
			mu.Unlock()
		}).
		Return(err)
	return func() domain.ChallengeCode {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

type harness struct {
	auth     *service.AuthService
	tokens   *service.TokenService
	notifier *mockNotifier
	clock    *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clk := &clock{now: time.Now().UTC()}
	st := memory.NewStore(memory.WithClock(clk.Now))

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("", pemKey)
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	tokens := &service.TokenService{
		Signer:      signer,
		Verifier:    jwtx.NewVerifierEdDSA(keys, "doorman-test", nil),
		Revocations: st.Revocations(),
		Issuer:      "doorman-test",
		TTL:         time.Hour,
		Now:         clk.Now,
	}
	n := &mockNotifier{}
	t.Cleanup(func() { n.AssertExpectations(t) })

	return &harness{
		auth: &service.AuthService{
			Accounts:   st.Accounts(),
			Challenges: st.Challenges(),
			Tokens:     tokens,
			Notifier:   n,
		},
		tokens:   tokens,
		notifier: n,
		clock:    clk,
	}
}

func ptr[T any](v T) *T { return &v }

func signup(email, password string, twoFA bool) service.SignupRequest {
	return service.SignupRequest{Email: ptr(email), Password: ptr(password), RequiresSecondFactor: ptr(twoFA)}
}

func login(email, password string) service.LoginRequest {
	return service.LoginRequest{Email: ptr(email), Password: ptr(password)}
}

func verify(email string, id domain.ChallengeID, code domain.ChallengeCode) service.VerifyChallengeRequest {
	return service.VerifyChallengeRequest{Email: ptr(email), ChallengeID: ptr(id.String()), Code: ptr(code.String())}
}

func TestSignup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	require.NoError(t, h.auth.Signup(ctx, signup("a@x.com", "password123", false)))
	require.ErrorIs(t, h.auth.Signup(ctx, signup("a@x.com", "password123", true)), service.ErrAlreadyExists)

	t.Run("missing fields are unprocessable", func(t *testing.T) {
		req := signup("c@x.com", "password123", false)
		req.RequiresSecondFactor = nil
		require.ErrorIs(t, h.auth.Signup(ctx, req), service.ErrInvalidInput)
		require.ErrorIs(t, h.auth.Signup(ctx, service.SignupRequest{}), service.ErrInvalidInput)
	})

	t.Run("zero values are present", func(t *testing.T) {
		err := h.auth.Signup(ctx, signup("", "", false))
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
		require.NotErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("business rules", func(t *testing.T) {
		for name, req := range map[string]service.SignupRequest{
			"no at sign":     signup("ax.com", "password123", false),
			"bad address":    signup("a@@x", "password123", false),
			"short password": signup("d@x.com", "1234567", false),
		} {
			t.Run(name, func(t *testing.T) {
				require.ErrorIs(t, h.auth.Signup(ctx, req), service.ErrInvalidCredentials)
			})
		}
	})

	t.Run("emails are case sensitive", func(t *testing.T) {
		require.NoError(t, h.auth.Signup(ctx, signup("A@x.com", "password123", false)))
	})
}

func TestLoginWithoutSecondFactor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.auth.Signup(ctx, signup("a@x.com", "password123", false)))

	res, err := h.auth.Login(ctx, login("a@x.com", "password123"))
	require.NoError(t, err)
	require.False(t, res.RequiresSecondFactor())
	require.NotEmpty(t, res.Session.Token)
	require.WithinDuration(t, h.clock.Now().Add(time.Hour), res.Session.ExpiresAt, time.Second)

	claims, err := h.tokens.Validate(ctx, res.Session.Token)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", claims.Subject)
	require.True(t, claims.HasAMR(jwtx.AMRPassword))
	require.False(t, claims.HasAMR(jwtx.AMROTP))

	h.notifier.AssertNotCalled(t, "SendCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginRejectionsDoNotDistinguish(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.auth.Signup(ctx, signup("a@x.com", "password123", false)))

	_, wrongPassword := h.auth.Login(ctx, login("a@x.com", "password124"))
	_, unknownEmail := h.auth.Login(ctx, login("nobody@x.com", "password123"))

	require.ErrorIs(t, wrongPassword, service.ErrIncorrectCredentials)
	require.ErrorIs(t, unknownEmail, service.ErrIncorrectCredentials)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	_, err := h.auth.Login(ctx, service.LoginRequest{Email: ptr("a@x.com")})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = h.auth.Login(ctx, login("not-an-email", "password123"))
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestSecondFactorFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.auth.Signup(ctx, signup("b@x.com", "password123", true)))
	sent := h.notifier.expectCode("b@x.com", nil)

	res, err := h.auth.Login(ctx, login("b@x.com", "password123"))
	require.NoError(t, err)
	require.True(t, res.RequiresSecondFactor())
	require.Empty(t, res.Session.Token, "no session before the second factor")
	require.False(t, res.DeliveryFailed)

	code := sent()
	require.Len(t, code.String(), domain.ChallengeCodeLength)

	sess, err := h.auth.VerifyChallenge(ctx, verify("b@x.com", res.ChallengeID, code))
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	claims, err := h.tokens.Validate(ctx, sess.Token)
	require.NoError(t, err)
	require.True(t, claims.HasAMR(jwtx.AMROTP))

	_, err = h.auth.VerifyChallenge(ctx, verify("b@x.com", res.ChallengeID, code))
	require.ErrorIs(t, err, service.ErrChallengeNotFound, "challenges are single use")
}

func TestWrongCodeLeavesChallenge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.auth.Signup(ctx, signup("b@x.com", "password123", true)))
	sent := h.notifier.expectCode("b@x.com", nil)

	res, err := h.auth.Login(ctx, login("b@x.com", "password123"))
	require.NoError(t, err)
	code := sent()

	wrong := domain.ChallengeCode("000000")
	if code == wrong {
		wrong = "111111"
	}
	_, err = h.auth.VerifyChallenge(ctx, verify("b@x.com", res.ChallengeID, wrong))
	require.ErrorIs(t, err, service.ErrIncorrectChallenge)

	_, err = h.auth.VerifyChallenge(ctx, verify("b@x.com", domain.NewChallengeID(), code))
	require.ErrorIs(t, err, service.ErrIncorrectChallenge)

	_, err = h.auth.VerifyChallenge(ctx, verify("b@x.com", res.ChallengeID, code))
	require.NoError(t, err)
}

func TestNewLoginReplacesChallenge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.auth.Signup(ctx, signup("b@x.com", "password123", true)))
	sent := h.notifier.expectCode("b@x.com", nil)

	first, err := h.auth.Login(ctx, login("b@x.com", "password123"))
	require.NoError(t, err)
	firstCode := sent()

	second, err := h.auth.Login(ctx, login("b@x.com", "password123"))
	require.NoError(t, err)
	require.NotEqual(t, first.ChallengeID, second.ChallengeID)

	_, err = h.auth.VerifyChallenge(ctx, verify("b@x.com", first.ChallengeID, firstCode))
	require.ErrorIs(t, err, service.ErrIncorrectChallenge)

	_, err = h.auth.VerifyChallenge(ctx, verify("b@x.com", second.ChallengeID, sent()))
	require.NoError(t, err)
}

// interleavedChallenges runs afterGet once, right after the first Get
// returns, to land a write between a read and the remove that follows.
type interleavedChallenges struct {
	store.Challenges
	once     sync.Once
	afterGet func()
}

func (c *interleavedChallenges) Get(ctx context.Context, email domain.Email) (domain.Challenge, error) {
	got, err := c.Challenges.Get(ctx, email)
	c.once.Do(c.afterGet)
	return got, err
}

func TestLoginDuringVerifySupersedesChallenge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.auth.Signup(ctx, signup("b@x.com", "password123", true)))
	sent := h.notifier.expectCode("b@x.com", nil)

	first, err := h.auth.Login(ctx, login("b@x.com", "password123"))
	require.NoError(t, err)
	firstCode := sent()

	var second service.LoginResult
	h.auth.Challenges = &interleavedChallenges{
		Challenges: h.auth.Challenges,
		afterGet: func() {
			second, err = h.auth.Login(ctx, login("b@x.com", "password123"))
			require.NoError(t, err)
		},
	}

	_, err = h.auth.VerifyChallenge(ctx, verify("b@x.com", first.ChallengeID, firstCode))
	require.ErrorIs(t, err, service.ErrChallengeNotFound, "superseded challenge must not mint a session")

	sess, err := h.auth.VerifyChallenge(ctx, verify("b@x.com", second.ChallengeID, sent()))
	require.NoError(t, err, "replacement challenge must survive")
	require.NotEmpty(t, sess.Token)
}

func TestChallengeExpires(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.auth.Signup(ctx, signup("b@x.com", "password123", true)))
	sent := h.notifier.expectCode("b@x.com", nil)

	res, err := h.auth.Login(ctx, login("b@x.com", "password123"))
	require.NoError(t, err)

	h.clock.Advance(10*time.Minute + time.Second)

	_, expired := h.auth.VerifyChallenge(ctx, verify("b@x.com", res.ChallengeID, sent()))
	_, never := h.auth.VerifyChallenge(ctx, verify("z@x.com", res.ChallengeID, sent()))
	require.ErrorIs(t, expired, service.ErrChallengeNotFound)
	require.ErrorIs(t, never, service.ErrChallengeNotFound)
	require.Equal(t, expired.Error(), never.Error())
}

func TestDeliveryFailureKeepsChallenge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.auth.Signup(ctx, signup("b@x.com", "password123", true)))
	sent := h.notifier.expectCode("b@x.com", errors.New("smtp: connection refused"))

	res, err := h.auth.Login(ctx, login("b@x.com", "password123"))
	require.NoError(t, err)
	require.True(t, res.DeliveryFailed)

	_, err = h.auth.VerifyChallenge(ctx, verify("b@x.com", res.ChallengeID, sent()))
	require.NoError(t, err)
}

func TestVerifyChallengeInput(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.auth.VerifyChallenge(ctx, service.VerifyChallengeRequest{Email: ptr("b@x.com")})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	id := domain.NewChallengeID()
	for name, req := range map[string]service.VerifyChallengeRequest{
		"email": verify("bx.com", id, "123456"),
		"id":    {Email: ptr("b@x.com"), ChallengeID: ptr("not-a-uuid"), Code: ptr("123456")},
		"code":  verify("b@x.com", id, "12345a"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := h.auth.VerifyChallenge(ctx, req)
			require.ErrorIs(t, err, service.ErrInvalidCredentials)
		})
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.auth.Signup(ctx, signup("a@x.com", "password123", false)))
	res, err := h.auth.Login(ctx, login("a@x.com", "password123"))
	require.NoError(t, err)
	token := res.Session.Token

	require.ErrorIs(t, h.auth.Logout(ctx, ""), service.ErrMissingToken)

	err = h.auth.Logout(ctx, "garbage")
	require.ErrorIs(t, err, service.ErrInvalidToken)
	require.ErrorIs(t, err, service.ErrMalformedToken)

	require.NoError(t, h.auth.Logout(ctx, token))

	err = h.auth.Logout(ctx, token)
	require.ErrorIs(t, err, service.ErrInvalidToken)
	require.ErrorIs(t, err, service.ErrRevokedToken)

	_, err = h.auth.ValidateToken(ctx, service.ValidateTokenRequest{Token: &token})
	require.ErrorIs(t, err, service.ErrRevokedToken)
}

func TestConcurrentLogoutRevokesOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.auth.Signup(ctx, signup("a@x.com", "password123", false)))
	res, err := h.auth.Login(ctx, login("a@x.com", "password123"))
	require.NoError(t, err)

	const n = 16
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for range n {
		wg.Go(func() { errs <- h.auth.Logout(ctx, res.Session.Token) })
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, service.ErrInvalidToken)
	}
	require.Equal(t, 1, ok)
}

func TestValidateTokenOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sess, err := h.tokens.Issue("a@x.com")
	require.NoError(t, err)

	_, err = h.auth.ValidateToken(ctx, service.ValidateTokenRequest{})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = h.auth.ValidateToken(ctx, service.ValidateTokenRequest{Token: ptr("a.b.c")})
	require.ErrorIs(t, err, service.ErrMalformedToken)

	claims, err := h.auth.ValidateToken(ctx, service.ValidateTokenRequest{Token: &sess.Token})
	require.NoError(t, err)
	require.Equal(t, "a@x.com", claims.Subject)

	require.NoError(t, h.tokens.Revocations.Revoke(ctx, sess.Token, sess.ExpiresAt))
	_, err = h.auth.ValidateToken(ctx, service.ValidateTokenRequest{Token: &sess.Token})
	require.ErrorIs(t, err, service.ErrRevokedToken)

	// Once past expiry a revoked token reports as expired.
	h.clock.Advance(time.Hour + time.Second)
	_, err = h.auth.ValidateToken(ctx, service.ValidateTokenRequest{Token: &sess.Token})
	require.ErrorIs(t, err, service.ErrExpiredToken)
	require.NotErrorIs(t, err, service.ErrRevokedToken)
}

func TestTokenFromOtherKeyIsMalformed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	other := newHarness(t)

	sess, err := other.tokens.Issue("a@x.com")
	require.NoError(t, err)

	_, err = h.tokens.Validate(ctx, sess.Token)
	require.ErrorIs(t, err, service.ErrMalformedToken)
}

func TestRevocationFailureIsUnexpected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sess, err := h.tokens.Issue("a@x.com")
	require.NoError(t, err)

	h.tokens.Revocations = failingRevocations{}
	_, err = h.tokens.Validate(ctx, sess.Token)
	require.Error(t, err)
	require.NotErrorIs(t, err, service.ErrInvalidToken)
	require.Equal(t, "unexpected", service.Outcome(err))
}

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Time) error {
	return errors.New("connection reset")
}

func (failingRevocations) Contains(context.Context, string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", service.Outcome(nil))
	require.Equal(t, "incorrect_credentials", service.Outcome(service.ErrIncorrectCredentials))
	require.Equal(t, "revoked_token", service.Outcome(errors.Join(service.ErrInvalidToken, service.ErrRevokedToken)))
	require.Equal(t, "invalid_token", service.Outcome(service.ErrInvalidToken))
	require.Equal(t, "unexpected", service.Outcome(errors.New("boom")))
}
