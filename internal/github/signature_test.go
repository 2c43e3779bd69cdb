package github

import "testing"

func TestVerifySignature(t *testing.T) {
	secret := "test-secret"
	body := []byte(`{"ref":"refs/heads/main"}`)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		{
			name:      "valid signature",
			secret:    secret,
			body:      body,
			signature: Sign(secret, body),
			want:      true,
		},
		{
			name:      "wrong secret",
			secret:    secret,
			body:      body,
			signature: Sign("other-secret", body),
			want:      false,
		},
		{
			name:      "tampered body",
			secret:    secret,
			body:      []byte(`{"ref":"refs/heads/evil"}`),
			signature: Sign(secret, body),
			want:      false,
		},
		{
			name:      "missing signature",
			secret:    secret,
			body:      body,
			signature: "",
			want:      false,
		},
		{
			name:      "wrong scheme prefix",
			secret:    secret,
			body:      body,
			signature: "sha1=deadbeef",
			want:      false,
		},
		{
			name:      "empty secret never verifies",
			secret:    "",
			body:      body,
			signature: Sign("", body),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifySignature(tt.secret, tt.body, tt.signature)
			if got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}
