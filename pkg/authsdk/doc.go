/*
Package authsdk provides request and response types for the doorman
authentication service, and a client for its endpoints.

# Flows

Accounts without a second factor receive a session cookie on login:

	client, _ := authsdk.NewClient("https://auth.example.com")
	err := client.Signup(ctx, authsdk.SignupRequest{Email: "a@x.com", Password: "password123"})
	res, err := client.Login(ctx, authsdk.LoginRequest{Email: "a@x.com", Password: "password123"})

When the account requires a second factor, Login returns the login attempt
id instead and the code is delivered out of band:

	if res.RequiresSecondFactor() {
		err = client.VerifyTwoFactor(ctx, authsdk.VerifyTwoFactorRequest{
			Email:          "a@x.com",
			LoginAttemptID: res.LoginAttemptID,
			Code:           code,
		})
	}

The session cookie lives in the client's cookie jar; SessionToken returns
it and Logout revokes it.

# Errors

Non-2xx responses are returned as *APIError. The predefined values match by
status and message, so errors.Is works:

	if errors.Is(err, authsdk.ErrIncorrectCredentials) { ... }
*/
package authsdk
