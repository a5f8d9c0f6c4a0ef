package docsync

import (
	"context"
	"errors"
	"testing"

	"github.com/pythia-ide/pythia/src/pythia/entity"
	"github.com/pythia-ide/pythia/src/pythia/factory"
	pythiaerrors "github.com/pythia-ide/pythia/src/pythia/internal/errors"
	"github.com/pythia-ide/pythia/src/pythia/repository/session/repositorymock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew(t *testing.T) {
	mockConfig, _ := config.NewStaticProvider(map[string]interface{}{
		_maxFileSizeKey: 2000,
	})
	assert.NotPanics(t, func() {
		New(Params{
			Stats:  tally.NewTestScope("testing", make(map[string]string, 0)),
			Config: mockConfig,
			Logger: zap.NewNop().Sugar(),
		})
	})
}

func TestNewMissingMaxFileSize(t *testing.T) {
	mockConfig, _ := config.NewStaticProvider(map[string]interface{}{})
	assert.Panics(t, func() {
		New(Params{
			Stats:  tally.NewTestScope("testing", make(map[string]string, 0)),
			Config: mockConfig,
			Logger: zap.NewNop().Sugar(),
		})
	})
}

func TestStartupInfo(t *testing.T) {
	ctx := context.Background()
	c := controller{}
	result, err := c.StartupInfo(ctx)

	assert.NoError(t, err)
	assert.NoError(t, result.Validate())
	assert.Equal(t, _nameKey, result.NameKey)
}

func TestInitialize(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessionRepository := repositorymock.NewMockRepository(ctrl)
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)

	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	c := controller{
		sessions:  sessionRepository,
		documents: make(documentStore),
		stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
	}
	initParams := &protocol.InitializeParams{}
	initResult := &protocol.InitializeResult{}
	err := c.initialize(ctx, initParams, initResult)

	assert.NoError(t, err)
	_, ok := c.documents[s.UUID]
	assert.True(t, ok)
	assert.Len(t, c.documents, 1)
}

func TestShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessionRepository := repositorymock.NewMockRepository(ctrl)
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)

	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	c := controller{
		sessions:  sessionRepository,
		documents: make(documentStore),
		stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
	}

	c.documents[s.UUID] = make(map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem)
	_, ok := c.documents[s.UUID]
	require.True(t, ok)

	err := c.shutdown(ctx)
	assert.NoError(t, err)

	_, ok = c.documents[s.UUID]
	assert.False(t, ok)
	assert.Len(t, c.documents, 0)
}

func TestEndSession(t *testing.T) {
	c := controller{
		documents: make(documentStore),
		stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
	}

	id := factory.UUID()
	c.documents[id] = map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem{
		{URI: "file:///sample/app.py"}: {URI: "file:///sample/app.py", Text: "import os"},
	}

	assert.NoError(t, c.endSession(context.Background(), id))
	assert.Len(t, c.documents, 0)
}

func TestDidOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessionRepository := repositorymock.NewMockRepository(ctrl)
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil).AnyTimes()

	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	sampleParams := []*protocol.DidOpenTextDocumentParams{
		{
			TextDocument: protocol.TextDocumentItem{
				URI:        "file:///my/path/app.py",
				LanguageID: "python",
				Version:    1,
				Text:       "import os",
			},
		},
		{
			TextDocument: protocol.TextDocumentItem{
				URI:        "file:///my/path/util.py",
				LanguageID: "python",
				Version:    2,
				Text:       "import sys",
			},
		},
		{
			TextDocument: protocol.TextDocumentItem{
				URI:        "file:///my/path/cli.py",
				LanguageID: "python",
				Version:    3,
				Text:       "import json",
			},
		},
	}

	t.Run("missing session", func(t *testing.T) {
		c := controller{
			sessions:         sessionRepository,
			documents:        make(documentStore),
			stats:            tally.NewTestScope("testing", make(map[string]string, 0)),
			maxFileSizeBytes: 2000,
		}

		for _, params := range sampleParams {
			err := c.didOpen(ctx, params)
			assert.Error(t, err)
		}
	})

	t.Run("valid session", func(t *testing.T) {
		c := controller{
			sessions:         sessionRepository,
			documents:        make(documentStore),
			stats:            tally.NewTestScope("testing", make(map[string]string, 0)),
			maxFileSizeBytes: 2000,
		}

		c.documents[s.UUID] = make(map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem)

		for i, params := range sampleParams {
			err := c.didOpen(ctx, params)
			assert.NoError(t, err)

			result, ok := c.documents[s.UUID][protocol.TextDocumentIdentifier{URI: params.TextDocument.URI}]
			assert.True(t, ok)
			assert.Len(t, c.documents[s.UUID], i+1)
			assert.Equal(t, params.TextDocument.URI, result.URI)
			assert.Equal(t, params.TextDocument.Text, result.Text)
			assert.Equal(t, params.TextDocument.Version, result.Version)
		}
	})

	t.Run("oversized document is skipped without error", func(t *testing.T) {
		c := controller{
			sessions:         sessionRepository,
			logger:           zap.NewNop().Sugar(),
			documents:        make(documentStore),
			stats:            tally.NewTestScope("testing", make(map[string]string, 0)),
			maxFileSizeBytes: 4,
		}

		c.documents[s.UUID] = make(map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem)

		err := c.didOpen(ctx, sampleParams[0])
		assert.NoError(t, err)
		assert.Len(t, c.documents[s.UUID], 0)
	})
}

func TestDidChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessionRepository := repositorymock.NewMockRepository(ctrl)
	s := &entity.Session{
		UUID: factory.UUID(),
	}

	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	doc := protocol.TextDocumentItem{
		URI:        "file:///my/path/app.py",
		LanguageID: "python",
		Version:    1,
		Text:       "import os",
	}

	t.Run("missing session", func(t *testing.T) {
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(nil, errors.New("error"))
		c := controller{
			sessions:  sessionRepository,
			documents: make(documentStore),
			stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
		}

		err := c.didChange(context.Background(), &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: doc.URI},
				Version:                2,
			},
		})
		assert.Error(t, err)
	})

	t.Run("untracked document", func(t *testing.T) {
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)
		c := controller{
			sessions:         sessionRepository,
			documents:        make(documentStore),
			stats:            tally.NewTestScope("testing", make(map[string]string, 0)),
			maxFileSizeBytes: 2000,
		}
		c.documents[s.UUID] = make(map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem)

		err := c.didChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: doc.URI},
				Version:                2,
			},
		})

		var docNotFound *pythiaerrors.DocumentNotFoundError
		assert.ErrorAs(t, err, &docNotFound)
	})

	t.Run("full sync replaces the stored text", func(t *testing.T) {
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)
		c := controller{
			sessions:         sessionRepository,
			documents:        make(documentStore),
			stats:            tally.NewTestScope("testing", make(map[string]string, 0)),
			maxFileSizeBytes: 2000,
		}
		c.documents[s.UUID] = map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem{
			{URI: doc.URI}: doc,
		}

		err := c.didChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: doc.URI},
				Version:                2,
			},
			ContentChanges: []protocol.TextDocumentContentChangeEvent{
				{Text: "import os\nimport sys"},
			},
		})

		assert.NoError(t, err)
		result := c.documents[s.UUID][protocol.TextDocumentIdentifier{URI: doc.URI}]
		assert.Equal(t, "import os\nimport sys", result.Text)
		assert.Equal(t, int32(2), result.Version)
	})

	t.Run("last change event wins", func(t *testing.T) {
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)
		c := controller{
			sessions:         sessionRepository,
			documents:        make(documentStore),
			stats:            tally.NewTestScope("testing", make(map[string]string, 0)),
			maxFileSizeBytes: 2000,
		}
		c.documents[s.UUID] = map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem{
			{URI: doc.URI}: doc,
		}

		err := c.didChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: doc.URI},
				Version:                3,
			},
			ContentChanges: []protocol.TextDocumentContentChangeEvent{
				{Text: "intermediate"},
				{Text: "final"},
			},
		})

		assert.NoError(t, err)
		result := c.documents[s.UUID][protocol.TextDocumentIdentifier{URI: doc.URI}]
		assert.Equal(t, "final", result.Text)
	})

	t.Run("oversized change is rejected", func(t *testing.T) {
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)
		c := controller{
			sessions:         sessionRepository,
			documents:        make(documentStore),
			stats:            tally.NewTestScope("testing", make(map[string]string, 0)),
			maxFileSizeBytes: 4,
		}
		c.documents[s.UUID] = map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem{
			{URI: doc.URI}: {URI: doc.URI, Text: "ok"},
		}

		err := c.didChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: doc.URI},
				Version:                2,
			},
			ContentChanges: []protocol.TextDocumentContentChangeEvent{
				{Text: "this text is far too long"},
			},
		})

		var sizeErr *pythiaerrors.DocumentSizeLimitError
		assert.ErrorAs(t, err, &sizeErr)
		result := c.documents[s.UUID][protocol.TextDocumentIdentifier{URI: doc.URI}]
		assert.Equal(t, "ok", result.Text)
	})
}

func TestDidClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessionRepository := repositorymock.NewMockRepository(ctrl)
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil).AnyTimes()

	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	c := controller{
		sessions:  sessionRepository,
		documents: make(documentStore),
		stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
	}
	c.documents[s.UUID] = map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem{
		{URI: "file:///my/path/app.py"}: {URI: "file:///my/path/app.py", Text: "import os"},
	}

	err := c.didClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///my/path/app.py"},
	})
	assert.NoError(t, err)
	assert.Len(t, c.documents[s.UUID], 0)

	// Closing an untracked document is a no-op.
	err = c.didClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///my/path/other.py"},
	})
	assert.NoError(t, err)
}

func TestDidSave(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessionRepository := repositorymock.NewMockRepository(ctrl)
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil).AnyTimes()

	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	docID := protocol.TextDocumentIdentifier{URI: "file:///my/path/app.py"}

	t.Run("untracked document", func(t *testing.T) {
		c := controller{
			sessions:  sessionRepository,
			documents: make(documentStore),
			stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
		}
		c.documents[s.UUID] = make(map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem)

		err := c.didSave(ctx, &protocol.DidSaveTextDocumentParams{TextDocument: docID})
		var docNotFound *pythiaerrors.DocumentNotFoundError
		assert.ErrorAs(t, err, &docNotFound)
	})

	t.Run("save without text keeps the stored content", func(t *testing.T) {
		c := controller{
			sessions:  sessionRepository,
			documents: make(documentStore),
			stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
		}
		c.documents[s.UUID] = map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem{
			docID: {URI: docID.URI, Text: "import os"},
		}

		err := c.didSave(ctx, &protocol.DidSaveTextDocumentParams{TextDocument: docID})
		assert.NoError(t, err)
		assert.Equal(t, "import os", c.documents[s.UUID][docID].Text)
	})

	t.Run("save with includeText reconciles the content", func(t *testing.T) {
		c := controller{
			sessions:  sessionRepository,
			documents: make(documentStore),
			stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
		}
		c.documents[s.UUID] = map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem{
			docID: {URI: docID.URI, Text: "import os"},
		}

		err := c.didSave(ctx, &protocol.DidSaveTextDocumentParams{
			TextDocument: docID,
			Text:         "import os\nimport sys",
		})
		assert.NoError(t, err)
		assert.Equal(t, "import os\nimport sys", c.documents[s.UUID][docID].Text)
	})
}

func TestGetTextDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessionRepository := repositorymock.NewMockRepository(ctrl)
	s := &entity.Session{
		UUID: factory.UUID(),
	}

	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	doc := protocol.TextDocumentItem{
		URI:        "file:///my/path/app.py",
		LanguageID: "python",
		Version:    4,
		Text:       "import os",
	}

	t.Run("missing session", func(t *testing.T) {
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(nil, errors.New("error"))
		c := controller{
			sessions:  sessionRepository,
			documents: make(documentStore),
			stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
		}

		_, err := c.GetTextDocument(ctx, protocol.TextDocumentIdentifier{URI: doc.URI})
		assert.Error(t, err)
	})

	t.Run("session without document map", func(t *testing.T) {
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)
		c := controller{
			sessions:  sessionRepository,
			documents: make(documentStore),
			stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
		}

		_, err := c.GetTextDocument(ctx, protocol.TextDocumentIdentifier{URI: doc.URI})
		var notFound *pythiaerrors.UUIDNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("untracked document", func(t *testing.T) {
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)
		c := controller{
			sessions:  sessionRepository,
			documents: make(documentStore),
			stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
		}
		c.documents[s.UUID] = make(map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem)

		_, err := c.GetTextDocument(ctx, protocol.TextDocumentIdentifier{URI: doc.URI})
		var docNotFound *pythiaerrors.DocumentNotFoundError
		assert.ErrorAs(t, err, &docNotFound)
	})

	t.Run("tracked document", func(t *testing.T) {
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)
		c := controller{
			sessions:  sessionRepository,
			documents: make(documentStore),
			stats:     tally.NewTestScope("testing", make(map[string]string, 0)),
		}
		c.documents[s.UUID] = map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem{
			{URI: doc.URI}: doc,
		}

		result, err := c.GetTextDocument(ctx, protocol.TextDocumentIdentifier{URI: doc.URI})
		assert.NoError(t, err)
		assert.Equal(t, doc, result)
	})
}
