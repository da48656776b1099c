/*
Package authsdk provides a client SDK for the TukCommunity accounts API.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (health, signup, login, refresh)
    and thin wrappers that take an access token explicitly.
  - Session: holds an access/refresh token pair and refreshes the access
    token shortly before it expires.

Typical use:

	client := authsdk.NewSDKClient("https://api.example.com")

	health, err := client.Health(ctx)

	_, err = client.Signup(ctx, authsdk.SignupRequest{
		Email:      "student@tukorea.ac.kr",
		Password:   "a-long-password",
		StudentNum: 2023123456,
		Department: "컴퓨터공학부",
	})

	session, err := client.AuthenticateWithPassword(ctx, "student@tukorea.ac.kr", "a-long-password")
	defer session.Logout(ctx)

# Error Handling

Non-2xx responses are returned as typed errors:

  - *APIError: {"detail","code"} bodies such as token_not_valid or
    no_active_account, with the HTTP status attached.

  - ValidationErrors: field level 400 bodies such as
    {"email":["이미 가입된 이메일입니다."]}.

    var verrs authsdk.ValidationErrors
    if errors.As(err, &verrs) && verrs.Has("email") {
    // email already registered
    }

# Thread Safety

Sessions are safe for concurrent use. Concurrent callers that find the
access token expired trigger a single refresh.
*/
package authsdk
