package telegram

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

const adminID int64 = 77

type fakeAdmin struct {
	queueLen  int
	failed    []int64
	canceled  int64
	err       error
	gotModel  string
	gotIDs    []int64
	callCount int
}

func (f *fakeAdmin) QueueStatus(ctx context.Context, id int64) (int, error) {
	f.callCount++
	return f.queueLen, f.err
}

func (f *fakeAdmin) WhatsAppErrors(ctx context.Context, id int64, model string, ids []int64) ([]int64, error) {
	f.callCount++
	f.gotModel, f.gotIDs = model, ids
	return f.failed, f.err
}

func (f *fakeAdmin) CancelFailed(ctx context.Context, id int64) (int64, error) {
	f.callCount++
	return f.canceled, f.err
}

func testEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newCommands(f *fakeAdmin) *adminCommands {
	return &adminCommands{admin: f, adminID: adminID, logger: testEntry()}
}

func TestAdminCommands_RejectStrangers(t *testing.T) {
	f := &fakeAdmin{}
	cmds := newCommands(f)
	ctx := context.Background()

	assert.Equal(t, msgNotAuthorized, cmds.queue(ctx, 1))
	assert.Equal(t, msgNotAuthorized, cmds.errors(ctx, 1, []string{"crm.lead", "1"}))
	assert.Equal(t, msgNotAuthorized, cmds.cancel(ctx, 1))
	assert.Zero(t, f.callCount)
}

func TestAdminCommands_Queue(t *testing.T) {
	f := &fakeAdmin{queueLen: 4}
	assert.Equal(t, "4 WhatsApp message(s) waiting to be sent.", newCommands(f).queue(context.Background(), adminID))

	f.queueLen = 0
	assert.Equal(t, "The WhatsApp queue is empty.", newCommands(f).queue(context.Background(), adminID))
}

func TestAdminCommands_Errors(t *testing.T) {
	f := &fakeAdmin{failed: []int64{3, 9}}
	cmds := newCommands(f)

	reply := cmds.errors(context.Background(), adminID, []string{"crm.lead", "3", "5", "9"})
	assert.Equal(t, "Failed WhatsApp notifications on crm.lead: 3, 9", reply)
	assert.Equal(t, "crm.lead", f.gotModel)
	assert.Equal(t, []int64{3, 5, 9}, f.gotIDs)
}

func TestAdminCommands_ErrorsBadInput(t *testing.T) {
	f := &fakeAdmin{}
	cmds := newCommands(f)

	assert.Contains(t, cmds.errors(context.Background(), adminID, []string{"crm.lead"}), "Invalid format")
	assert.Contains(t, cmds.errors(context.Background(), adminID, []string{"crm.lead", "x"}), "must be a number")
	assert.Zero(t, f.callCount)
}

func TestAdminCommands_CancelError(t *testing.T) {
	f := &fakeAdmin{err: errors.New("boom")}
	assert.Contains(t, newCommands(f).cancel(context.Background(), adminID), "boom")

	f.err = nil
	f.canceled = 2
	assert.Equal(t, "2 failed WhatsApp notification(s) canceled.", newCommands(f).cancel(context.Background(), adminID))
}

type fakeClient struct {
	to   int64
	text string
}

func (c *fakeClient) SendMessage(to int64, text string) error {
	c.to, c.text = to, text
	return nil
}

func TestAdminAlerter(t *testing.T) {
	c := &fakeClient{}
	NewAdminAlerter(c, adminID, testEntry()).Alert("queue dispatch", errors.New("db down"))

	assert.Equal(t, adminID, c.to)
	assert.Equal(t, "WhatsApp gateway: queue dispatch failed: db down", c.text)
}

func TestStartAndHelpText(t *testing.T) {
	assert.Contains(t, startText(adminID, adminID, "Ana"), "Hello, Ana!")
	assert.Contains(t, startText(1, adminID, "Bob"), "only answers")
	assert.Contains(t, helpText(true), "/whatsapp_errors")
	assert.Equal(t, "No commands are available to you.", helpText(false))
}
