package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/pkg/cryptox"
)

func TestCreateSuperuser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	svc := &SuperuserService{Store: st}

	u, password, err := svc.CreateSuperuser(ctx, SuperuserInput{
		Email:      "admin@tukorea.ac.kr",
		StudentNum: 1,
		Department: "운영팀",
	})
	require.NoError(t, err)
	require.Len(t, password, 16, "a password is generated when none is given")
	require.Equal(t, "Admin", u.NicknameOrEmpty())

	role, err := st.Roles().GetRoleByID(ctx, u.RoleID)
	require.NoError(t, err)
	require.True(t, domain.IsAdmin(role))

	stored, err := st.Users().GetUserByEmail(ctx, "admin@tukorea.ac.kr")
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword(password, stored.PasswordHash))

	t.Run("admin can log in and carries authority", func(t *testing.T) {
		tokens := newTokenService(t, st)
		pair, err := tokens.Authenticate(ctx, "admin@tukorea.ac.kr", password)
		require.NoError(t, err)

		claims, err := tokens.Verifier.Verify(pair.Access)
		require.NoError(t, err)
		require.Equal(t, domain.AuthorityAdmin, claims.Authority)
	})

	t.Run("explicit password and nickname", func(t *testing.T) {
		u, password, err := svc.CreateSuperuser(ctx, SuperuserInput{
			Email:      "ops@tukorea.ac.kr",
			Password:   "1234",
			StudentNum: 2,
			Department: "운영팀",
			Nickname:   "ops",
		})
		require.NoError(t, err)
		require.Equal(t, "1234", password, "the signup password policy does not apply")
		require.Equal(t, "ops", u.NicknameOrEmpty())
	})

	t.Run("duplicates", func(t *testing.T) {
		_, _, err := svc.CreateSuperuser(ctx, SuperuserInput{
			Email: "admin@tukorea.ac.kr", StudentNum: 3, Department: "운영팀",
		})
		var verrs ValidationError
		require.ErrorAs(t, err, &verrs)
		require.True(t, verrs.Has("email"))
	})

	t.Run("invalid input", func(t *testing.T) {
		_, _, err := svc.CreateSuperuser(ctx, SuperuserInput{Email: "nope", StudentNum: -5})
		var verrs ValidationError
		require.ErrorAs(t, err, &verrs)
		require.True(t, verrs.Has("email"))
		require.True(t, verrs.Has("student_num"))
		require.True(t, verrs.Has("department"))
	})
}

func TestRolesService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := &RolesService{Store: newTestStore(t)}

	roles, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)

	require.Equal(t, domain.AuthorityUser, roles[0].Authority)
	require.Equal(t, domain.AuthorityAdmin, roles[1].Authority)
}
