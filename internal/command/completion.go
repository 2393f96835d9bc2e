// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/petcache/internal/meta"
)

const bashCompletionScript = `# bash completion for petcache
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_petcache()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "get set rm keys inspect clear browse completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--store --dir --compress --bucket --s3-prefix --region --profile --passphrase --output -o --color -c --titles -t --examples"

    case "$cmd" in
        get)
            local opts="$common --default --path --ttl"
            ;;
        set)
            local opts="$common --diff --ttl"
            ;;
        keys)
            local opts="$common --prefix --filter -f --sort -s"
            ;;
        clear)
            local opts="$common --prefix --all --yes -y"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
            return 0
            ;;
        --store)
            COMPREPLY=( $(compgen -W "local memory s3" -- "$cur") )
            return 0
            ;;
        --dir)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _petcache petcache
`

const zshCompletionScript = `#compdef petcache

_petcache() {
  local -a cmds
  cmds=(
    'get:read a key'
    'set:write a key'
    'rm:remove keys'
    'keys:list stored keys'
    'inspect:show a key'"'"'s stored envelope'
    'clear:remove a namespace or everything'
    'browse:interactive key browser'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '--store[durable store]:store:(local memory s3)'
  '--dir[local store directory]:dir:_directories'
  '--compress[zstd level]:level'
  '--bucket[s3 bucket]:bucket'
  '--s3-prefix[s3 key prefix]:prefix'
  '--region[aws region]:region'
  '--profile[aws profile]:profile'
  '--passphrase[seal values at rest]:passphrase'
  '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--examples[show example invocations]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'petcache commands' cmds
    return
  fi

  case $words[2] in
    get)
      _arguments -C $common '--default[JSON default]:json' '--path[gjson path]:path' '--ttl[expiration]:duration' '1:key'
      ;;
    set)
      _arguments -C $common '--diff[show delta]' '--ttl[expiration]:duration' '1:key' '2:json'
      ;;
    keys)
      _arguments -C $common '--prefix[key prefix]:prefix' '(-f --filter)'{-f,--filter}'[filters]:filters' '(-s --sort)'{-s,--sort}'[sort columns]:columns'
      ;;
    clear)
      _arguments -C $common '--prefix[key prefix]:prefix' '--all[everything]' '(-y --yes)'{-y,--yes}'[confirm --all]'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common '*:key'
      ;;
  esac
}

if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _petcache petcache
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	w := stdout(cmd)
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: petcache completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "petcache completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
