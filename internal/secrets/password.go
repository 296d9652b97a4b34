package secrets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the bot's secrets in the OS keychain.
const KeyringService = "faresentinel"

// ErrNotFound is returned when a secret is in neither the environment nor the keychain.
var ErrNotFound = errors.New("secret not found")

// SMTPKeyringAccount is the keychain account holding the SMTP app password.
func SMTPKeyringAccount(username, host string) string {
	return fmt.Sprintf("faresentinel:smtp:%s@%s", username, host)
}

// SMTPPassword returns fromEnv when set, otherwise the keychain entry.
func SMTPPassword(fromEnv, keyringAccount string) (string, error) {
	if strings.TrimSpace(fromEnv) != "" {
		return fromEnv, nil
	}
	if strings.TrimSpace(keyringAccount) == "" {
		return "", ErrNotFound
	}
	pw, err := keyring.Get(KeyringService, keyringAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keyring: %w", err)
	}
	if strings.TrimSpace(pw) == "" {
		return "", ErrNotFound
	}
	return pw, nil
}

// SetSMTPPassword stores the SMTP app password in the keychain.
func SetSMTPPassword(keyringAccount, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

// StoreSMTPPassword reads one line from r and stores it under keyringAccount.
func StoreSMTPPassword(r io.Reader, keyringAccount string) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	return SetSMTPPassword(keyringAccount, strings.TrimRight(line, "\r\n"))
}
