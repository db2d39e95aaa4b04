package sqlinline

const QSelectIntegrationToken = `--sql 3c1f6a9e-52d4-4b0e-9f7a-0e8d6b1c2a47
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql b7e2d4c1-9a3f-4e58-8c6d-2f1a0b9e7d35
insert into integration_tokens (provider, token, properties, created_at, updated_at)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
