package discovery

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hatlonely/desa/cfg"
	"github.com/hatlonely/desa/schema"
	"github.com/pkg/errors"
)

// FileSourceOptions 表结构文件源配置
type FileSourceOptions struct {
	// Path 表结构描述文件路径，支持 json、yaml、toml
	Path string `cfg:"path" validate:"required"`
}

// FileSource 表结构文件源，监听文件变更并把重新解析的记录类型通知给回调
type FileSource struct {
	path     string
	watcher  *fsnotify.Watcher
	mu       sync.RWMutex
	onChange []func(recordTypes []*schema.RecordType) error
	watching bool
	once     sync.Once // 用于确保只初始化一次
}

func NewFileSourceWithOptions(options *FileSourceOptions) (*FileSource, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	if err := cfg.SetDefaults(options); err != nil {
		return nil, errors.WithMessage(err, "cfg.SetDefaults failed")
	}
	if err := cfg.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "cfg.ValidateStruct failed")
	}

	absPath, err := filepath.Abs(options.Path)
	if err != nil {
		return nil, errors.Wrap(err, "invalid file path")
	}

	return &FileSource{
		path: absPath,
	}, nil
}

// Load 读取并解析当前的表结构描述文件
func (s *FileSource) Load() ([]*schema.RecordType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Load(s.path)
}

// OnChange 注册文件变更回调，回调在 Watch 启动后的每次成功解析时触发
func (s *FileSource) OnChange(fn func(recordTypes []*schema.RecordType) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 仅仅将新的回调函数添加到队列中
	s.onChange = append(s.onChange, fn)
}

// Watch 启动文件监听，解析失败的变更直接跳过，不打断监听
func (s *FileSource) Watch() error {
	var initErr error
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			initErr = errors.Wrap(err, "failed to create file watcher")
			return
		}

		s.watcher = watcher
		s.watching = true

		go func() {
			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					// 监听的是整个目录，只处理目标文件自己的写入
					if event.Name == s.path && event.Op&fsnotify.Write == fsnotify.Write {
						recordTypes, err := Load(s.path)
						if err != nil {
							continue
						}

						// 安全地复制 handler 列表
						s.mu.RLock()
						handlers := make([]func(recordTypes []*schema.RecordType) error, len(s.onChange))
						copy(handlers, s.onChange)
						s.mu.RUnlock()

						for _, handler := range handlers {
							if handler != nil {
								handler(recordTypes)
							}
						}
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					_ = err
				}
			}
		}()

		// 监听文件所在目录，覆盖编辑器原地改写的场景
		dir := filepath.Dir(s.path)
		if err := watcher.Add(dir); err != nil {
			initErr = errors.Wrap(err, "failed to add directory to watcher")
			return
		}
	})

	return initErr
}

func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
