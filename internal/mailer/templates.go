package mailer

import "fmt"

const (
	registrationSubject = "Confirm your registration"
	registrationBody    = "Welcome! Follow this link to activate your account:\n\n%s%s\n\nIf you did not register, ignore this message and the account will be removed automatically."

	changePasswordSubject = "Confirm your password change"
	changePasswordBody    = "Follow this link to set a new password:\n\n%s%s\n\nIf you did not request this, ignore this message."
)

// RegistrationMessage renders the activation mail for an encoded
// registration token.
func RegistrationMessage(linkBase, token string) (subject, body string) {
	return registrationSubject, fmt.Sprintf(registrationBody, linkBase, token)
}

// ChangePasswordMessage renders the password-change mail for an encoded
// change-password token.
func ChangePasswordMessage(linkBase, token string) (subject, body string) {
	return changePasswordSubject, fmt.Sprintf(changePasswordBody, linkBase, token)
}
