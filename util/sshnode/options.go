package sshnode

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anmitsu/go-shlex"
	"github.com/rs/zerolog/log"
)

// WithOptions returns a copy of c modified by the openssh client command
// line options in s, like "-o StrictHostKeyChecking=no -p 2222". The
// options without equivalent in the ssh library are ignored.
func (c Config) WithOptions(s string) (Config, error) {
	words, err := shlex.Split(s, true)
	if err != nil {
		return c, err
	}
	next := func(i int) (string, error) {
		if i+1 >= len(words) {
			return "", fmt.Errorf("ssh option %s: missing value", words[i])
		}
		return words[i+1], nil
	}
	for i := 0; i < len(words); i++ {
		word := words[i]
		switch word {
		case "-4":
			c.Network = "tcp4"
		case "-6":
			c.Network = "tcp6"
		case "-p", "-l", "-i", "-o":
			value, err := next(i)
			if err != nil {
				return c, err
			}
			i++
			switch word {
			case "-p":
				c.Port = value
			case "-l":
				c.User = value
			case "-i":
				c.IdentityFile = value
			case "-o":
				if err := c.setOption(value); err != nil {
					return c, err
				}
			}
		default:
			log.Debug().Msgf("ignore ssh option %s", word)
		}
	}
	return c, nil
}

func (c *Config) setOption(s string) error {
	kv := strings.SplitN(s, "=", 2)
	if len(kv) != 2 {
		kv = strings.Fields(s)
	}
	if len(kv) != 2 {
		return fmt.Errorf("ssh option -o %s: expected key=value", s)
	}
	key, value := strings.ToLower(strings.TrimSpace(kv[0])), strings.TrimSpace(kv[1])
	switch key {
	case "stricthostkeychecking":
		c.InsecureHostKey = strings.ToLower(value) == "no"
	case "userknownhostsfile":
		c.KnownHostsFile = value
	case "port":
		c.Port = value
	case "user":
		c.User = value
	case "identityfile":
		c.IdentityFile = value
	case "connecttimeout":
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("ssh option -o %s: %w", s, err)
		}
		c.Timeout = time.Duration(i) * time.Second
	default:
		log.Debug().Msgf("ignore ssh option -o %s", s)
	}
	return nil
}
