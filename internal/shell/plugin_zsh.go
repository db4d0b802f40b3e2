package shell

// ZshPlugin adds a red "● REC" segment to the right prompt while a screenrec
// process is recording.
const ZshPlugin = `# screenrec prompt plugin, auto-generated, do not edit manually
# Source this file from your ~/.zshrc:
#   source ~/.config/screenrec/screenrec.plugin.zsh

_screenrec_session_file="${XDG_DATA_HOME:-$HOME/.local/share}/screenrec/session.json"
_screenrec_rprompt="$RPROMPT"

_screenrec_precmd() {
  if [[ -f "$_screenrec_session_file" ]] && grep -q '"state":"recording"' "$_screenrec_session_file" 2>/dev/null; then
    RPROMPT="%F{red}● REC%f $_screenrec_rprompt"
  else
    RPROMPT="$_screenrec_rprompt"
  fi
}

autoload -Uz add-zsh-hook
add-zsh-hook precmd _screenrec_precmd
`
