package service_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eventra-app/workspace-backend/internal/service"
)

var _ = Describe("AuthService", func() {
	var env *testEnv

	BeforeEach(func() {
		env = newTestEnv()
	})

	Describe("Register", func() {
		It("creates a user and issues a token pair", func() {
			user, access, refresh, err := env.services.Auth.Register(ctx, "Anika", "anika@example.com", "password123")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).NotTo(BeEmpty())
			Expect(access).NotTo(BeEmpty())
			Expect(refresh).NotTo(BeEmpty())

			token, err := env.services.Auth.ValidateToken(access)
			Expect(err).NotTo(HaveOccurred())
			subject, err := env.services.Auth.GetUserIDFromToken(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(subject).To(Equal(user.ID))
		})

		It("rejects a duplicate email", func() {
			_, _, _, err := env.services.Auth.Register(ctx, "Anika", "anika@example.com", "password123")
			Expect(err).NotTo(HaveOccurred())

			_, _, _, err = env.services.Auth.Register(ctx, "Imposter", "anika@example.com", "password456")
			Expect(err).To(MatchError(service.ErrUserExists))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, _, _, err := env.services.Auth.Register(ctx, "Anika", "anika@example.com", "password123")
			Expect(err).NotTo(HaveOccurred())
		})

		It("authenticates with the right password", func() {
			user, access, _, err := env.services.Auth.Login(ctx, "anika@example.com", "password123")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal("anika@example.com"))
			Expect(access).NotTo(BeEmpty())
		})

		It("rejects a wrong password", func() {
			_, _, _, err := env.services.Auth.Login(ctx, "anika@example.com", "wrong-password")
			Expect(err).To(MatchError(service.ErrInvalidCredentials))
		})

		It("rejects an unknown email", func() {
			_, _, _, err := env.services.Auth.Login(ctx, "nobody@example.com", "password123")
			Expect(err).To(MatchError(service.ErrInvalidCredentials))
		})
	})

	Describe("RefreshToken", func() {
		It("rotates the refresh token, invalidating the old one", func() {
			_, _, refresh, err := env.services.Auth.Register(ctx, "Anika", "anika@example.com", "password123")
			Expect(err).NotTo(HaveOccurred())

			access, newRefresh, err := env.services.Auth.RefreshToken(ctx, refresh)
			Expect(err).NotTo(HaveOccurred())
			Expect(access).NotTo(BeEmpty())
			Expect(newRefresh).NotTo(Equal(refresh))

			_, _, err = env.services.Auth.RefreshToken(ctx, refresh)
			Expect(err).To(MatchError(service.ErrInvalidToken))
		})

		It("rejects an unknown refresh token", func() {
			_, _, err := env.services.Auth.RefreshToken(ctx, "not-a-token")
			Expect(err).To(MatchError(service.ErrInvalidToken))
		})
	})

	Describe("Logout", func() {
		It("revokes the refresh token", func() {
			_, _, refresh, err := env.services.Auth.Register(ctx, "Anika", "anika@example.com", "password123")
			Expect(err).NotTo(HaveOccurred())

			Expect(env.services.Auth.Logout(ctx, refresh)).To(Succeed())

			_, _, err = env.services.Auth.RefreshToken(ctx, refresh)
			Expect(err).To(MatchError(service.ErrInvalidToken))
		})
	})
})
