package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/synckeeper/internal/codec"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(DefaultRegistrations()...)
	require.NoError(t, err)
	return registry
}

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		regs    []Registration
		wantErr bool
	}{
		{
			name: "default registrations",
			regs: DefaultRegistrations(),
		},
		{
			name: "duplicate type",
			regs: []Registration{
				{Name: "note", New: func() Record { return &Note{} }},
				{Name: "note", New: func() Record { return &Note{} }},
			},
			wantErr: true,
		},
		{
			name:    "empty name",
			regs:    []Registration{{Name: "", New: func() Record { return &Note{} }}},
			wantErr: true,
		},
		{
			name:    "nil constructor",
			regs:    []Registration{{Name: "note"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := NewRegistry(tt.regs...)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, registry)
		})
	}
}

func TestRegistryOrder(t *testing.T) {
	// Порядок регистрации определяет порядок типов в канонической
	// сериализации
	registry := newTestRegistry(t)
	assert.Equal(t, []string{TypeCredential, TypeNote, TypeCard}, registry.TypeNames())
}

func TestMarshalRecordFieldOrder(t *testing.T) {
	note := &Note{
		Meta:    Meta{Created: 100, Modified: 250},
		Name:    "wifi",
		Content: "pass1234",
	}

	data, err := codec.Serialize(MarshalRecord(note))
	require.NoError(t, err)
	assert.Equal(t,
		`{"_created":100,"_modified":250,"name":"wifi","content":"pass1234"}`,
		string(data))
}

func TestMarshalRecordOmitsZeroModified(t *testing.T) {
	// _modified опускается, пока запись не менялась
	note := &Note{Meta: Meta{Created: 100}, Name: "n", Content: "c"}

	data, err := codec.Serialize(MarshalRecord(note))
	require.NoError(t, err)
	assert.Equal(t, `{"_created":100,"name":"n","content":"c"}`, string(data))
}

func TestMarshalTombstone(t *testing.T) {
	data, err := codec.Serialize(MarshalTombstone(Tombstone{Created: 100, Deleted: 300}))
	require.NoError(t, err)
	assert.Equal(t, `{"_created":100,"_deleted":300}`, string(data))
}

func TestParseRecord(t *testing.T) {
	registry := newTestRegistry(t)

	tests := []struct {
		obj      map[string]any
		name     string
		typeName string
		wantErr  bool
	}{
		{
			name:     "valid note",
			typeName: TypeNote,
			obj:      map[string]any{"_created": int64(100), "name": "wifi", "content": "x"},
		},
		{
			name:     "valid with modified",
			typeName: TypeNote,
			obj:      map[string]any{"_created": int64(100), "_modified": int64(200), "name": "n"},
		},
		{
			name:     "unknown type",
			typeName: "unknown",
			obj:      map[string]any{"_created": int64(100)},
			wantErr:  true,
		},
		{
			name:     "missing created",
			typeName: TypeNote,
			obj:      map[string]any{"name": "n"},
			wantErr:  true,
		},
		{
			name:     "non-positive created",
			typeName: TypeNote,
			obj:      map[string]any{"_created": int64(0), "name": "n"},
			wantErr:  true,
		},
		{
			name:     "modified not after created",
			typeName: TypeNote,
			obj:      map[string]any{"_created": int64(100), "_modified": int64(100), "name": "n"},
			wantErr:  true,
		},
		{
			name:     "payload field of wrong kind",
			typeName: TypeNote,
			obj:      map[string]any{"_created": int64(100), "name": 42},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := registry.ParseRecord(tt.typeName, tt.obj)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.typeName, rec.TypeName())
			assert.Equal(t, int64(100), rec.MetaInfo().Created)
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	// parse(serialize(r)) восстанавливает запись с точностью до
	// payload-равенства
	registry := newTestRegistry(t)

	records := []Record{
		&Credential{
			Meta:     Meta{Created: 100, Modified: 200},
			Name:     "GitHub",
			Login:    "octocat",
			Password: "s3cret",
			URL:      "https://github.com",
			Notes:    "work",
		},
		&Note{Meta: Meta{Created: 101}, Name: "wifi", Content: "pass1234"},
		&Card{
			Meta:   Meta{Created: 102},
			Name:   "Visa Gold",
			Number: "4111111111111111",
			Holder: "IVAN IVANOV",
			Expiry: "12/30",
			CVV:    "123",
		},
	}

	for _, original := range records {
		data, err := codec.Serialize(MarshalRecord(original))
		require.NoError(t, err)

		obj, err := codec.ParseObject(data)
		require.NoError(t, err)

		parsed, err := registry.ParseRecord(original.TypeName(), obj)
		require.NoError(t, err)

		assert.True(t, parsed.EqualPayload(original),
			"payload должен восстановиться: %s", original.Display())
		assert.Equal(t, original.MetaInfo().Created, parsed.MetaInfo().Created)
		assert.Equal(t, original.MetaInfo().Modified, parsed.MetaInfo().Modified)
	}
}

func TestParseTombstone(t *testing.T) {
	tests := []struct {
		obj     map[string]any
		name    string
		wantErr bool
	}{
		{
			name: "valid",
			obj:  map[string]any{"_created": int64(100), "_deleted": int64(300)},
		},
		{
			name:    "missing created",
			obj:     map[string]any{"_deleted": int64(300)},
			wantErr: true,
		},
		{
			name:    "non-positive deleted",
			obj:     map[string]any{"_created": int64(100), "_deleted": int64(0)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tomb, err := ParseTombstone(tt.obj)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRecord)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(100), tomb.Created)
			assert.Equal(t, int64(300), tomb.Deleted)
		})
	}
}

func TestIsTombstone(t *testing.T) {
	assert.True(t, IsTombstone(map[string]any{"_created": 1, "_deleted": 2}))
	assert.False(t, IsTombstone(map[string]any{"_created": 1, "name": "n"}))
}

func TestCloneIsDeep(t *testing.T) {
	original := &Credential{Meta: Meta{Created: 100}, Name: "one"}

	clone := original.Clone().(*Credential)
	clone.Name = "two"
	clone.Meta.Modified = 500

	assert.Equal(t, "one", original.Name)
	assert.Zero(t, original.Meta.Modified)
}

func TestDisplayHidesSecrets(t *testing.T) {
	cred := &Credential{Name: "GitHub", Login: "octocat", Password: "hunter2"}
	assert.NotContains(t, cred.Display(), "hunter2")

	card := &Card{Name: "Visa", Number: "4111111111111111", CVV: "123"}
	assert.NotContains(t, card.Display(), "123")
	assert.Contains(t, card.Display(), "1111")
	assert.NotContains(t, card.Display(), "4111111111111111")
}
