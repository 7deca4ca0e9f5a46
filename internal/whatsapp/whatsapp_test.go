package whatsapp

import (
	"context"
	"testing"
)

func TestMockClient_SendMessage(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()

	if err := mock.SendMessage(ctx, "60123456789", "hello"); err != nil {
		t.Fatalf("mock send failed: %v", err)
	}
	if len(mock.Sent) != 1 || mock.Sent[0] != "60123456789: hello" {
		t.Errorf("mock record = %+v", mock.Sent)
	}
}

func TestClientSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	var c Client

	if err := c.SendMessage(ctx, "60123456789", "hello"); err == nil {
		t.Error("expected error for uninitialized client")
	}
}
