package acinfinity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	logins       atomic.Int32
	expireTokens atomic.Int32
	password     atomic.Value
	listCode     int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	reply := func(code int, data any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": "msg", "data": data})
	}
	switch r.URL.Path {
	case loginPath:
		f.logins.Add(1)
		f.password.Store(r.PostForm.Get("appPasswordl"))
		if r.PostForm.Get("appEmail") != "grower@example.com" {
			reply(10002, nil)
			return
		}
		reply(codeSuccess, map[string]any{"appId": "token-1"})
	case devicesPath:
		if r.Header.Get("token") != "token-1" || r.PostForm.Get("userId") != "token-1" {
			reply(codeUnauthorized, nil)
			return
		}
		if f.expireTokens.Load() > 0 {
			f.expireTokens.Add(-1)
			reply(codeTokenExpired, nil)
			return
		}
		if f.listCode != 0 {
			reply(f.listCode, nil)
			return
		}
		reply(codeSuccess, []any{map[string]any{"devId": "1424979258063355749", "devType": 11, "temperature": 2417}})
	case portSettingsPath:
		reply(codeSuccess, map[string]any{"devId": r.PostForm.Get("devId"), "port": r.PostForm.Get("port"), "loadType": 6})
	default:
		http.NotFound(w, r)
	}
}

func TestClient_GetDevicesListAll(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	c := NewClient(srv.URL, "grower@example.com", "hunter2")
	defer c.Close()

	controllers, err := c.GetDevicesListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, controllers, 1)
	assert.True(t, c.IsLoggedIn())
	assert.EqualValues(t, 1, api.logins.Load())

	v := found(controllers[0]["temperature"])
	assert.Equal(t, 2417, v.Int(0))
	assert.Equal(t, "1424979258063355749", found(controllers[0]["devId"]).String(""))
}

func TestClient_ReloginOnExpiredToken(t *testing.T) {
	api := &fakeAPI{}
	api.expireTokens.Store(1)
	srv := httptest.NewServer(api)
	defer srv.Close()

	c := NewClient(srv.URL, "grower@example.com", "hunter2")
	_, err := c.GetDevicesListAll(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, api.logins.Load())
}

func TestClient_Errors(t *testing.T) {
	tests := map[string]struct {
		email    string
		listCode int
		wantErr  error
	}{
		"bad credentials": {
			email:   "someone@example.com",
			wantErr: ErrAuth,
		},
		"api error": {
			email:    "grower@example.com",
			listCode: 500,
			wantErr:  ErrAPI,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(&fakeAPI{listCode: tt.listCode})
			defer srv.Close()

			c := NewClient(srv.URL, tt.email, "hunter2")
			_, err := c.GetDevicesListAll(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_TruncatesPassword(t *testing.T) {
	tests := map[string]struct {
		password string
		want     string
	}{
		"ascii": {
			password: "abcdefghijklmnopqrstuvwxyz0123",
			want:     "abcdefghijklmnopqrstuvwxy",
		},
		"multibyte": {
			password: strings.Repeat("é", 30),
			want:     strings.Repeat("é", 25),
		},
		"short": {
			password: "hunter2",
			want:     "hunter2",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{}
			srv := httptest.NewServer(api)
			defer srv.Close()

			c := NewClient(srv.URL, "grower@example.com", tt.password)
			require.NoError(t, c.Login(context.Background()))
			got, _ := api.password.Load().(string)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestClient_GetDeviceModeSettingsList(t *testing.T) {
	srv := httptest.NewServer(&fakeAPI{})
	defer srv.Close()

	c := NewClient(srv.URL, "grower@example.com", "hunter2")
	settings, err := c.GetDeviceModeSettingsList(context.Background(), "42", 3)
	require.NoError(t, err)
	assert.Equal(t, "42", settings["devId"])
	assert.Equal(t, "3", settings["port"])
	assert.Equal(t, 6, found(settings["loadType"]).Int(0))
}
