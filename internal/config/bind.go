package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag and config-file keys.
const (
	KeyConfig            = "config"
	KeyHost              = "host"
	KeyPort              = "port"
	KeyReadPort          = "read-port"
	KeyWritePort         = "write-port"
	KeyOutput            = "output"
	KeyTransport         = "transport"
	KeyNickname          = "nickname"
	KeyToken             = "token"
	KeyMessage           = "message"
	KeyRetryFreeAttempts = "retry-free-attempts"
	KeyRetryDelay        = "retry-delay"
	KeyTimestamps        = "timestamps"
)

// Environment variables per command.
var (
	ReaderEnv = map[string]string{
		KeyConfig:            "CHAT_CONFIG",
		KeyHost:              "CHAT_HOST",
		KeyPort:              "CHAT_READ_PORT",
		KeyOutput:            "OUTPUT_FILEPATH",
		KeyTransport:         "CHAT_TRANSPORT",
		KeyRetryFreeAttempts: "CHAT_RETRY_FREE_ATTEMPTS",
		KeyRetryDelay:        "CHAT_RETRY_DELAY",
		KeyTimestamps:        "CHAT_TIMESTAMPS",
	}
	WriterEnv = map[string]string{
		KeyConfig:    "CHAT_CONFIG",
		KeyHost:      "CHAT_HOST",
		KeyPort:      "CHAT_WRITE_PORT",
		KeyNickname:  "CHAT_NICKNAME",
		KeyToken:     "CHAT_AUTH_TOKEN",
		KeyMessage:   "CHAT_MESSAGE",
		KeyTransport: "CHAT_TRANSPORT",
	}
	ServerEnv = map[string]string{
		KeyConfig:    "CHAT_CONFIG",
		KeyHost:      "CHAT_SERVER_HOST",
		KeyReadPort:  "CHAT_READ_PORT",
		KeyWritePort: "CHAT_WRITE_PORT",
	}
)

// ReaderFlags registers chat-reader flags with their defaults.
func ReaderFlags(fs *pflag.FlagSet) {
	d := DefaultReader()
	fs.String(KeyConfig, "", "Config file (.toml or .yaml)")
	fs.String(KeyHost, d.Host, "Host for connect to chat. Required")
	fs.Int(KeyPort, d.Port, "Port for connect to chat for reading messages")
	fs.String(KeyOutput, d.Output, "Filepath for save chat messages")
	fs.String(KeyTransport, d.Transport, "Transport: tcp or ws")
	fs.Int(KeyRetryFreeAttempts, d.FreeAttempts, "Consecutive failures retried without delay")
	fs.Duration(KeyRetryDelay, d.RetryDelay, "Delay between connection attempts after the free ones (bare numbers are seconds)")
	fs.Bool(KeyTimestamps, d.Timestamps, "Prefix saved messages with [DD.MM.YYYY HH:MM]")
}

// WriterFlags registers chat-writer flags with their defaults.
func WriterFlags(fs *pflag.FlagSet) {
	d := DefaultWriter()
	fs.String(KeyConfig, "", "Config file (.toml or .yaml)")
	fs.String(KeyHost, d.Host, "Host for connect to chat. Required")
	fs.Int(KeyPort, d.Port, "Port for connect to chat for writing messages")
	fs.String(KeyNickname, d.Nickname, "User nickname for registering in chat")
	fs.String(KeyToken, d.Token, "User token for authorisation in chat")
	fs.String(KeyMessage, d.Message, "User message for sending to chat. Required")
	fs.String(KeyTransport, d.Transport, "Transport: tcp or ws")
}

// ServerFlags registers chat-server flags with their defaults.
func ServerFlags(fs *pflag.FlagSet) {
	d := DefaultServer()
	fs.String(KeyConfig, "", "Config file (.toml or .yaml)")
	fs.String(KeyHost, d.Host, "Interface to listen on (empty for all)")
	fs.Int(KeyReadPort, d.ReadPort, "Port broadcasting chat messages")
	fs.Int(KeyWritePort, d.WritePort, "Port accepting registrations and messages")
}

// LoadReader resolves the chat-reader configuration.
func LoadReader(fs *pflag.FlagSet) (Reader, error) {
	v, err := bind(fs, ReaderEnv)
	if err != nil {
		return Reader{}, err
	}

	delay, err := ParseDelay(v.GetString(KeyRetryDelay))
	if err != nil {
		return Reader{}, err
	}

	cfg := Reader{
		Host:         v.GetString(KeyHost),
		Port:         v.GetInt(KeyPort),
		Output:       v.GetString(KeyOutput),
		Transport:    v.GetString(KeyTransport),
		FreeAttempts: v.GetInt(KeyRetryFreeAttempts),
		RetryDelay:   delay,
		Timestamps:   v.GetBool(KeyTimestamps),
	}
	return cfg, cfg.Validate()
}

// LoadWriter resolves the chat-writer configuration.
func LoadWriter(fs *pflag.FlagSet) (Writer, error) {
	v, err := bind(fs, WriterEnv)
	if err != nil {
		return Writer{}, err
	}

	cfg := Writer{
		Host:      v.GetString(KeyHost),
		Port:      v.GetInt(KeyPort),
		Nickname:  v.GetString(KeyNickname),
		Token:     v.GetString(KeyToken),
		Message:   v.GetString(KeyMessage),
		Transport: v.GetString(KeyTransport),
	}
	return cfg, cfg.Validate()
}

// LoadServer resolves the chat-server configuration.
func LoadServer(fs *pflag.FlagSet) (Server, error) {
	v, err := bind(fs, ServerEnv)
	if err != nil {
		return Server{}, err
	}

	cfg := Server{
		Host:      v.GetString(KeyHost),
		ReadPort:  v.GetInt(KeyReadPort),
		WritePort: v.GetInt(KeyWritePort),
	}
	return cfg, cfg.Validate()
}

// bind layers flags over environment variables over the config file over
// flag defaults.
func bind(fs *pflag.FlagSet, env map[string]string) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", name, err)
		}
	}

	if path := v.GetString(KeyConfig); path != "" {
		file, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(file.Values()); err != nil {
			return nil, fmt.Errorf("merge config %s: %w", path, err)
		}
	}
	return v, nil
}
