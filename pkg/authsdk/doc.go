/*
Package authsdk is the wire contract and Go client of the tuckshop session
service.

# Errors

Every failure the service reports is an *Error carrying one Kind from a closed
set. The server writes it with WriteError; the client decodes it back, so
callers on both sides switch over the same enumeration:

	_, _, err := client.Login(ctx, "jo@example.com", "Secret123")
	switch {
	case authsdk.IsKind(err, authsdk.KindInvalidCredentials):
		// wrong identifier or password
	case authsdk.IsKind(err, authsdk.KindAccountInactive):
		// account disabled
	}

Each Kind maps to a fixed HTTP status and wire code (Kind.Status, Kind.Code).
Anything the server does not recognise is reported as KindDatabase.

# Sessions

Register and Login return a Session. The access token is renewed from the
refresh token shortly before it expires:

	client := authsdk.NewSDKClient("https://auth.tuckshop.example")
	session, _, err := client.Login(ctx, "jo", "Secret123")
	if err != nil {
		return err
	}
	me, err := session.Me(ctx)

The server rotates the refresh token on every refresh. Unless it is configured
to hand the replacement back, a Session can renew its access token once and
must log in again afterwards.
*/
package authsdk
