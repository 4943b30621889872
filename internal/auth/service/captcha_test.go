package service

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCaptcha(t *testing.T) {
	t.Parallel()

	t.Run("challenge shape", func(t *testing.T) {
		env := newEnv(t)
		ch, err := env.captcha.NewChallenge()
		require.NoError(t, err)
		require.GreaterOrEqual(t, ch.A, 1)
		require.LessOrEqual(t, ch.A, 20)
		require.GreaterOrEqual(t, ch.B, 1)
		require.LessOrEqual(t, ch.B, 20)
		require.Equal(t, env.clock.Now().Add(DefaultCaptchaTTL), ch.ExpiresAt)
	})

	t.Run("right answer is accepted once", func(t *testing.T) {
		env := newEnv(t)
		ch, err := env.captcha.NewChallenge()
		require.NoError(t, err)
		answer := strconv.Itoa(ch.A + ch.B)

		require.NoError(t, env.captcha.Verify(env.ctx, ch.Token, " "+answer+" "))
		require.ErrorIs(t, env.captcha.Verify(env.ctx, ch.Token, answer), ErrCaptchaRequired)
	})

	t.Run("wrong answer does not burn the challenge", func(t *testing.T) {
		env := newEnv(t)
		ch, err := env.captcha.NewChallenge()
		require.NoError(t, err)

		require.ErrorIs(t, env.captcha.Verify(env.ctx, ch.Token, strconv.Itoa(ch.A+ch.B+1)), ErrCaptchaRequired)
		require.ErrorIs(t, env.captcha.Verify(env.ctx, ch.Token, "eleven"), ErrCaptchaRequired)
		require.NoError(t, env.captcha.Verify(env.ctx, ch.Token, strconv.Itoa(ch.A+ch.B)))
	})

	t.Run("missing parts", func(t *testing.T) {
		env := newEnv(t)
		ch, err := env.captcha.NewChallenge()
		require.NoError(t, err)

		require.ErrorIs(t, env.captcha.Verify(env.ctx, "", strconv.Itoa(ch.A+ch.B)), ErrCaptchaRequired)
		require.ErrorIs(t, env.captcha.Verify(env.ctx, ch.Token, ""), ErrCaptchaRequired)
	})

	t.Run("other secret", func(t *testing.T) {
		env := newEnv(t)
		ch, err := env.captcha.NewChallenge()
		require.NoError(t, err)

		other := &CaptchaService{Store: env.store, Secret: accessSecret, Now: env.clock.Now}
		require.ErrorIs(t, other.Verify(env.ctx, ch.Token, strconv.Itoa(ch.A+ch.B)), ErrCaptchaRequired)
	})

	t.Run("storage failure is not a wrong answer", func(t *testing.T) {
		env := newEnv(t)
		ch, err := env.captcha.NewChallenge()
		require.NoError(t, err)

		require.NoError(t, env.store.Close())
		err = env.captcha.Verify(env.ctx, ch.Token, strconv.Itoa(ch.A+ch.B))
		require.ErrorIs(t, err, ErrStorage)
		require.NotErrorIs(t, err, ErrCaptchaRequired)
	})
}

func TestCaptchaExpires(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	env.captcha.TTL = time.Minute

	ch, err := env.captcha.NewChallenge()
	require.NoError(t, err)

	env.clock.Advance(2 * time.Minute)
	require.ErrorIs(t, env.captcha.Verify(env.ctx, ch.Token, strconv.Itoa(ch.A+ch.B)), ErrCaptchaRequired)
}

func TestCaptchaWeakSecret(t *testing.T) {
	t.Parallel()
	_, err := (&CaptchaService{Secret: []byte("short")}).NewChallenge()
	require.Error(t, err)
}
