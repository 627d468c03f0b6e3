package config

const TokensendConfigTemplate = `rpc_url = "{{ .RpcUrl }}"
private_key = "{{ .PrivateKey }}"
token_address = "{{ .TokenAddress }}"

server_port = {{ .ServerPort }}
chain_id = {{ .ChainId }}
gas_limit = {{ .GasLimit }}
gas_price_gwei = {{ .GasPriceGwei }}
token_decimals = {{ .TokenDecimals }}
rpc_timeout_secs = {{ .RpcTimeoutSecs }}

winner_amount = {{ .WinnerAmount }}
draw_amount = {{ .DrawAmount }}
`
