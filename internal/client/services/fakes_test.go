package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/client/models"
)

type fakeClient struct {
	RegisterErr error
	LoginErr    error
	LogoutErr   error
	PingErr     error

	Profile    *models.Profile
	CurrentErr error

	AddErr    error
	LastAdd   time.Time
	LastAmt   int
	AddCalled bool

	DayRet    *models.DaySummary
	LastDay   string
	MonthRet  *models.MonthSummary
	LastMonth string
	MonthErr  error

	UploadKey, UploadURL string
	UploadErr            error
	ConfirmedKey         string
	ConfirmErr           error

	LastEmail    string
	LastPassword []byte
	Calls        int
}

func (f *fakeClient) Register(_ context.Context, email string, password []byte) error {
	f.Calls++
	f.LastEmail, f.LastPassword = email, append([]byte(nil), password...)
	return f.RegisterErr
}

func (f *fakeClient) Login(_ context.Context, email string, password []byte) error {
	f.Calls++
	f.LastEmail, f.LastPassword = email, append([]byte(nil), password...)
	return f.LoginErr
}

func (f *fakeClient) Logout(context.Context) error { f.Calls++; return f.LogoutErr }

func (f *fakeClient) Current(context.Context) (*models.Profile, error) {
	f.Calls++
	return f.Profile, f.CurrentErr
}

func (f *fakeClient) AddWater(_ context.Context, date time.Time, amount int) (*models.WaterEntry, error) {
	f.Calls++
	f.AddCalled = true
	f.LastAdd, f.LastAmt = date, amount
	if f.AddErr != nil {
		return nil, f.AddErr
	}
	return &models.WaterEntry{ID: "w1", Date: date, Amount: amount}, nil
}

func (f *fakeClient) Day(_ context.Context, day string) (*models.DaySummary, error) {
	f.Calls++
	f.LastDay = day
	return f.DayRet, nil
}

func (f *fakeClient) Month(_ context.Context, month string) (*models.MonthSummary, error) {
	f.Calls++
	f.LastMonth = month
	return f.MonthRet, f.MonthErr
}

func (f *fakeClient) AvatarUpload(context.Context) (string, string, error) {
	f.Calls++
	return f.UploadKey, f.UploadURL, f.UploadErr
}

func (f *fakeClient) ConfirmAvatar(_ context.Context, key string) (string, error) {
	f.Calls++
	f.ConfirmedKey = key
	if f.ConfirmErr != nil {
		return "", f.ConfirmErr
	}
	return "http://cdn.local/avatars/" + key, nil
}

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }
